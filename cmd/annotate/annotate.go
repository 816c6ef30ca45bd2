// Command annotate recomputes population-genetic summaries for every
// biallelic record of a variant stream: allele and genotype frequency by
// expectation-maximization, inbreeding coefficient, imputation rsq, the
// HWE likelihood-ratio p-value, and per-sample genotype quality, masking
// low-quality genotypes to missing as it goes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/guptarohit/asciigraph"

	"github.com/dasnellings/vcfaid/internal/annotate"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func usage() {
	fmt.Print(
		"annotate - recompute allele/genotype frequencies, F, rsq, HWE p-value, and GQ for a biallelic variant stream.\n" +
			"Usage:\n" +
			"annotate [options] input.vcf\n\n")
	flag.PrintDefaults()
}

func main() {
	epsilon := flag.Float64("e", 1e-20, "EM convergence threshold.")
	maxIter := flag.Int("m", 1000, "Maximum EM iterations.")
	gqThreshold := flag.Float64("g", 0, "Genotype quality threshold below which a sample's genotype is set to missing.")
	output := flag.String("o", "var.bcf", "Output variant file.")
	verbose := flag.Bool("verbose", false, "Print an EM convergence sparkline every 1000 records.")
	plotPath := flag.String("plot", "", "Write an RSQ-vs-AFmle scatter of the whole run to this PNG path.")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		log.Fatalln("ERROR: must supply exactly one input variant file")
	}
	input := flag.Arg(0)

	log.Printf("annotate started: %s", os.Args)
	run(input, *output, *epsilon, *maxIter, *gqThreshold, *verbose, *plotPath)
	log.Printf("annotate done.")
}

func run(input, output string, epsilon float64, maxIter int, gqThreshold float64, verbose bool, plotPath string) {
	r, h, err := vcfio.Open(input)
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()
	annotate.DeclareTags(h)

	w, err := vcfio.Create(output, h)
	if err != nil {
		log.Fatalln(err)
	}

	cfg := annotate.Config{Epsilon: epsilon, MaxIter: maxIter, GQThreshold: gqThreshold}
	diag := buildDiagnostics(verbose, plotPath)

	if err := annotate.Run(r, w, cfg, diag); err != nil {
		log.Fatalln(err)
	}
	if err := w.Close(); err != nil {
		log.Fatalln(err)
	}
	if diag != nil {
		flushDiagnostics(plotPath)
	}
}

// recordCount and summary accumulate across the run for the verbose
// sparkline and the final RSQ-vs-AFmle scatter; they are only populated
// when the corresponding flag is set.
var (
	recordCount int
	afPoints    []float64
	rsqPoints   []float64
)

func buildDiagnostics(verbose bool, plotPath string) *annotate.Diagnostics {
	if !verbose && plotPath == "" {
		return nil
	}
	diag := &annotate.Diagnostics{}
	if verbose {
		diag.OnRecordConverged = func(chrom string, pos int, errTrace []float64) {
			recordCount++
			if recordCount%1000 != 0 || len(errTrace) == 0 {
				return
			}
			log.Printf("convergence trace for %s:%d (record %d):", chrom, pos, recordCount)
			fmt.Println(asciigraph.Plot(errTrace, asciigraph.Height(5), asciigraph.Caption("squared error per EM iteration")))
		}
	}
	if plotPath != "" {
		diag.OnRecordSummary = func(afMLE, rsq float64) {
			afPoints = append(afPoints, afMLE)
			rsqPoints = append(rsqPoints, rsq)
		}
	}
	return diag
}
