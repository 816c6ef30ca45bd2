package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/dasnellings/vcfaid/internal/subset"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func subsetUsage(subsetFlags *flag.FlagSet) {
	fmt.Print(
		"subset - filter a variant stream by id/score table or by coordinate pairs\n\n" +
			"Usage:\n" +
			"  vcfaid subset (-t tsv | -p pos) [options] input.vcf\n\n" +
			"Options:\n")
	subsetFlags.PrintDefaults()
}

func runSubset(args []string) {
	subsetFlags := flag.NewFlagSet("subset", flag.ExitOnError)

	tsv := subsetFlags.String("t", "", "Id/score table: one id per row with an optional score.")
	pos := subsetFlags.String("p", "", "Coordinate-pair table: chromA startA chromB endB per row.")
	output := subsetFlags.String("o", "var.bcf", "Output variant file.")

	subsetFlags.Parse(args)
	subsetFlags.Usage = func() { subsetUsage(subsetFlags) }

	if subsetFlags.NArg() != 1 {
		subsetFlags.Usage()
		errExit("ERROR: must supply exactly one input variant file")
	}
	if (*tsv == "" && *pos == "") || (*tsv != "" && *pos != "") {
		subsetFlags.Usage()
		errExit("ERROR: exactly one of -t or -p must be supplied")
	}

	r, h, err := vcfio.Open(subsetFlags.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	if *tsv != "" {
		subsetRunIDMode(r, h, *output, *tsv)
		return
	}
	subsetRunPositionMode(r, h, *output, *pos)
}

func subsetRunIDMode(r *vcfio.Reader, h *vcfio.Header, output, tsv string) {
	st, err := subset.ReadScoreTable(tsv)
	if err != nil {
		log.Fatalln(err)
	}
	cfg := subset.Config{Scores: &st}
	subset.PrepareHeader(h, cfg)

	w, err := vcfio.Create(output, h)
	if err != nil {
		log.Fatalln(err)
	}
	if err := subset.Run(r, w, cfg); err != nil {
		log.Fatalln(err)
	}
	if err := w.Close(); err != nil {
		log.Fatalln(err)
	}
}

func subsetRunPositionMode(r *vcfio.Reader, h *vcfio.Header, output, pos string) {
	ps, err := subset.ReadPositionSet(pos, h)
	if err != nil {
		log.Fatalln(err)
	}
	cfg := subset.Config{Positions: &ps}

	w, err := vcfio.Create(output, h)
	if err != nil {
		log.Fatalln(err)
	}
	if err := subset.Run(r, w, cfg); err != nil {
		log.Fatalln(err)
	}
	if err := w.Close(); err != nil {
		log.Fatalln(err)
	}
}
