// Command gq-mask masks any sample in a pre-annotated variant stream whose
// GQ falls below a threshold, setting both alleles of its genotype to
// missing, independent of the annotate command.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dasnellings/vcfaid/internal/gqmask"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func usage() {
	fmt.Print(
		"gq-mask - set genotypes below a GQ threshold to missing.\n" +
			"Usage:\n" +
			"gq-mask [options] input.vcf\n\n")
	flag.PrintDefaults()
}

func main() {
	gqThreshold := flag.Int("g", 20, "Genotype quality threshold below which a sample's genotype is set to missing.")
	output := flag.String("o", "var.bcf", "Output variant file.")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		log.Fatalln("ERROR: must supply exactly one input variant file")
	}
	input := flag.Arg(0)

	log.Printf("gq-mask started: %s", os.Args)
	run(input, *output, *gqThreshold)
	log.Printf("gq-mask done.")
}

func run(input, output string, gqThreshold int) {
	r, h, err := vcfio.Open(input)
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	w, err := vcfio.Create(output, h)
	if err != nil {
		log.Fatalln(err)
	}
	if err := gqmask.Run(r, w, gqThreshold); err != nil {
		log.Fatalln(err)
	}
	if err := w.Close(); err != nil {
		log.Fatalln(err)
	}
}
