package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dasnellings/vcfaid/internal/replicate"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func replicateUsage(replicateFlags *flag.FlagSet) {
	fmt.Print(
		"replicate - compare control/tumor sample pairs for rare-variant replication\n\n" +
			"Usage:\n" +
			"  vcfaid replicate -s samples [options] input.vcf\n\n" +
			"Options:\n")
	replicateFlags.PrintDefaults()
}

func runReplicate(args []string) {
	replicateFlags := flag.NewFlagSet("replicate", flag.ExitOnError)

	samples := replicateFlags.String("s", "", "Sample-pair table: control and tumor sample name per row.")
	minBAF := replicateFlags.Float64("b", 0.25, "Minimum control B-allele frequency to call a variant replicated.")
	minSupport := replicateFlags.Int("p", 2, "Minimum tumor alternate-allele read support to call a variant replicated.")
	output := replicateFlags.String("o", "out.tsv", "Output report file.")

	replicateFlags.Parse(args)
	replicateFlags.Usage = func() { replicateUsage(replicateFlags) }

	if replicateFlags.NArg() != 1 || *samples == "" {
		replicateFlags.Usage()
		errExit("ERROR: must supply -s and exactly one input variant file")
	}

	pairs, err := replicate.ReadPairs(*samples)
	if err != nil {
		log.Fatalln(err)
	}

	r, _, err := vcfio.Open(replicateFlags.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	out, err := os.Create(*output)
	if err != nil {
		log.Fatalln(err)
	}
	defer out.Close()

	cfg := replicate.Config{MinBAF: *minBAF, MinSupport: *minSupport}
	if err := replicate.Run(r, pairs, cfg, out); err != nil {
		log.Fatalln(err)
	}
}
