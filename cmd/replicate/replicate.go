// Command replicate checks rare variants against a matched control/tumor
// sample pair table, reporting for each rare site whether the control's
// B-allele frequency and the tumor's alternate-allele support are strong
// enough to call the variant replicated.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dasnellings/vcfaid/internal/replicate"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func usage() {
	fmt.Print(
		"replicate - compare control/tumor sample pairs for rare-variant replication.\n" +
			"Usage:\n" +
			"replicate -s samples [options] input.vcf\n\n")
	flag.PrintDefaults()
}

func main() {
	samples := flag.String("s", "", "Sample-pair table: control and tumor sample name per row.")
	minBAF := flag.Float64("b", 0.25, "Minimum control B-allele frequency to call a variant replicated.")
	minSupport := flag.Int("p", 2, "Minimum tumor alternate-allele read support to call a variant replicated.")
	output := flag.String("o", "out.tsv", "Output report file.")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 || *samples == "" {
		usage()
		log.Fatalln("ERROR: must supply -s and exactly one input variant file")
	}
	input := flag.Arg(0)

	log.Printf("replicate started: %s", os.Args)
	run(input, *samples, *output, *minBAF, *minSupport)
	log.Printf("replicate done.")
}

func run(input, samplesPath, output string, minBAF float64, minSupport int) {
	pairs, err := replicate.ReadPairs(samplesPath)
	if err != nil {
		log.Fatalln(err)
	}

	r, _, err := vcfio.Open(input)
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()

	out, err := os.Create(output)
	if err != nil {
		log.Fatalln(err)
	}
	defer out.Close()

	cfg := replicate.Config{MinBAF: minBAF, MinSupport: minSupport}
	if err := replicate.Run(r, pairs, cfg, out); err != nil {
		log.Fatalln(err)
	}
}
