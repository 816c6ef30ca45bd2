package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/guptarohit/asciigraph"

	"github.com/dasnellings/vcfaid/internal/annotate"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func annotateUsage(annotateFlags *flag.FlagSet) {
	fmt.Print(
		"annotate - recompute allele/genotype frequencies, F, rsq, HWE p-value, and GQ for a biallelic variant stream\n\n" +
			"Usage:\n" +
			"  vcfaid annotate [options] input.vcf\n\n" +
			"Options:\n")
	annotateFlags.PrintDefaults()
}

func runAnnotate(args []string) {
	annotateFlags := flag.NewFlagSet("annotate", flag.ExitOnError)

	epsilon := annotateFlags.Float64("e", 1e-20, "EM convergence threshold.")
	maxIter := annotateFlags.Int("m", 1000, "Maximum EM iterations.")
	gqThreshold := annotateFlags.Float64("g", 0, "Genotype quality threshold below which a sample's genotype is set to missing.")
	output := annotateFlags.String("o", "var.bcf", "Output variant file.")
	verbose := annotateFlags.Bool("verbose", false, "Print an EM convergence sparkline every 1000 records.")
	plotPath := annotateFlags.String("plot", "", "Write an RSQ-vs-AFmle scatter of the whole run to this PNG path.")

	annotateFlags.Parse(args)
	annotateFlags.Usage = func() { annotateUsage(annotateFlags) }

	if annotateFlags.NArg() != 1 {
		annotateFlags.Usage()
		errExit("ERROR: must supply exactly one input variant file")
	}

	r, h, err := vcfio.Open(annotateFlags.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}
	defer r.Close()
	annotate.DeclareTags(h)

	w, err := vcfio.Create(*output, h)
	if err != nil {
		log.Fatalln(err)
	}

	cfg := annotate.Config{Epsilon: *epsilon, MaxIter: *maxIter, GQThreshold: *gqThreshold}
	diag := annotateDiagnostics(*verbose, *plotPath)

	if err := annotate.Run(r, w, cfg, diag); err != nil {
		log.Fatalln(err)
	}
	if err := w.Close(); err != nil {
		log.Fatalln(err)
	}
	flushAnnotatePlot(*plotPath)
}

var (
	annotateRecordCount int
	annotateAFPoints    []float64
	annotateRSQPoints   []float64
)

func annotateDiagnostics(verbose bool, plotPath string) *annotate.Diagnostics {
	if !verbose && plotPath == "" {
		return nil
	}
	diag := &annotate.Diagnostics{}
	if verbose {
		diag.OnRecordConverged = func(chrom string, pos int, errTrace []float64) {
			annotateRecordCount++
			if annotateRecordCount%1000 != 0 || len(errTrace) == 0 {
				return
			}
			log.Printf("convergence trace for %s:%d (record %d):", chrom, pos, annotateRecordCount)
			fmt.Println(asciigraph.Plot(errTrace, asciigraph.Height(5), asciigraph.Caption("squared error per EM iteration")))
		}
	}
	if plotPath != "" {
		diag.OnRecordSummary = func(afMLE, rsq float64) {
			annotateAFPoints = append(annotateAFPoints, afMLE)
			annotateRSQPoints = append(annotateRSQPoints, rsq)
		}
	}
	return diag
}
