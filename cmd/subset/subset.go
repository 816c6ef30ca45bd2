// Command subset selects records from a variant stream either by a
// variant-id (and optional score) table, or by a coordinate-pair table
// translated through the stream's chromosome dictionary. Exactly one of
// -t / -p must be supplied.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dasnellings/vcfaid/internal/subset"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func usage() {
	fmt.Print(
		"subset - filter a variant stream by id/score table or by coordinate pairs.\n" +
			"Usage:\n" +
			"subset (-t tsv | -p pos) [options] input.vcf\n\n")
	flag.PrintDefaults()
}

func main() {
	tsv := flag.String("t", "", "Id/score table: one id per row with an optional score.")
	pos := flag.String("p", "", "Coordinate-pair table: chromA startA chromB endB per row.")
	output := flag.String("o", "var.bcf", "Output variant file.")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		log.Fatalln("ERROR: must supply exactly one input variant file")
	}
	if (*tsv == "" && *pos == "") || (*tsv != "" && *pos != "") {
		usage()
		log.Fatalln("ERROR: exactly one of -t or -p must be supplied")
	}
	input := flag.Arg(0)

	log.Printf("subset started: %s", os.Args)
	run(input, *output, *tsv, *pos)
	log.Printf("subset done.")
}

func run(input, output, tsv, pos string) {
	r, h, err := vcfio.Open(input)
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	if tsv != "" {
		runIDMode(r, h, output, tsv)
		return
	}
	runPositionMode(r, h, output, pos)
}

func runIDMode(r *vcfio.Reader, h *vcfio.Header, output, tsv string) {
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

func runPositionMode(r *vcfio.Reader, h *vcfio.Header, output, pos string) {
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
