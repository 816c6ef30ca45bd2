package main

import (
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// flushDiagnostics renders the accumulated AFmle/RSQ points to plotPath, if
// the caller requested a plot.
func flushDiagnostics(plotPath string) {
	if plotPath == "" || len(afPoints) == 0 {
		return
	}

	pts := make(plotter.XYs, len(afPoints))
	for i := range afPoints {
		pts[i].X = afPoints[i]
		pts[i].Y = rsqPoints[i]
	}

	p := plot.New()
	p.Title.Text = "imputation quality vs. MLE allele frequency"
	p.X.Label.Text = "AFmle"
	p.Y.Label.Text = "RSQ"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		log.Printf("annotate: skipping plot: %v", err)
		return
	}
	p.Add(scatter)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, plotPath); err != nil {
		log.Printf("annotate: skipping plot: %v", err)
	}
}
