package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/dasnellings/vcfaid/internal/gqmask"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func gqMaskUsage(gqMaskFlags *flag.FlagSet) {
	fmt.Print(
		"gq-mask - set genotypes below a GQ threshold to missing\n\n" +
			"Usage:\n" +
			"  vcfaid gq-mask [options] input.vcf\n\n" +
			"Options:\n")
	gqMaskFlags.PrintDefaults()
}

func runGQMask(args []string) {
	gqMaskFlags := flag.NewFlagSet("gq-mask", flag.ExitOnError)

	gqThreshold := gqMaskFlags.Int("g", 20, "Genotype quality threshold below which a sample's genotype is set to missing.")
	output := gqMaskFlags.String("o", "var.bcf", "Output variant file.")

	gqMaskFlags.Parse(args)
	gqMaskFlags.Usage = func() { gqMaskUsage(gqMaskFlags) }

	if gqMaskFlags.NArg() != 1 {
		gqMaskFlags.Usage()
		errExit("ERROR: must supply exactly one input variant file")
	}

	r, h, err := vcfio.Open(gqMaskFlags.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	w, err := vcfio.Create(*output, h)
	if err != nil {
		log.Fatalln(err)
	}
	if err := gqmask.Run(r, w, *gqThreshold); err != nil {
		log.Fatalln(err)
	}
	if err := w.Close(); err != nil {
		log.Fatalln(err)
	}
}
