// Package annotate drives the EM estimators and derived statistics across
// every record of a variant stream, rewriting INFO tags and masking
// low-quality genotypes to missing.
package annotate

import (
	"fmt"
	"math"

	"github.com/dasnellings/vcfaid/internal/em"
	"github.com/dasnellings/vcfaid/internal/gl"
	"github.com/dasnellings/vcfaid/internal/popstat"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

// Config bounds the EM loops and sets the GQ-masking threshold. GQThreshold
// may be +Inf (mask every called genotype) or -Inf (mask none).
type Config struct {
	Epsilon     float64
	MaxIter     int
	GQThreshold float64
}

func (c Config) emConfig() em.Config {
	return em.Config{Epsilon: c.Epsilon, MaxIter: c.MaxIter}
}

// Diagnostics, when non-nil, receives a progress callback per record and an
// optional final summary point, independent of the annotated VCF output.
type Diagnostics struct {
	// OnRecordConverged is invoked after each biallelic record's AF-EM
	// finishes, with the per-iteration squared-error trace.
	OnRecordConverged func(chrom string, pos int, errTrace []float64)
	// OnRecordSummary is invoked after each biallelic record's full
	// statistics are computed, for a whole-run QC scatter.
	OnRecordSummary func(afMLE, rsq float64)
}

// DeclareTags registers the six INFO tags and the GQ FORMAT tag this
// package rewrites, so a caller can pass the same header to vcfio.Create.
func DeclareTags(h *vcfio.Header) {
	h.DeclareInfo(vcfio.FieldDecl{ID: "AFmle", Number: "1", Type: "Float", Description: "EM maximum-likelihood alternate allele frequency"})
	h.DeclareInfo(vcfio.FieldDecl{ID: "ACmle", Number: "1", Type: "Integer", Description: "Alternate allele count implied by AFmle"})
	h.DeclareInfo(vcfio.FieldDecl{ID: "GFmle", Number: "G", Type: "Float", Description: "Unconstrained genotype-frequency maximum-likelihood estimate"})
	h.DeclareInfo(vcfio.FieldDecl{ID: "FIC", Number: "1", Type: "Float", Description: "Inbreeding coefficient"})
	h.DeclareInfo(vcfio.FieldDecl{ID: "RSQ", Number: "1", Type: "Float", Description: "Imputation quality (observed/expected dosage variance)"})
	h.DeclareInfo(vcfio.FieldDecl{ID: "HWEpval", Number: "1", Type: "Float", Description: "HWE likelihood-ratio test p-value"})
	h.DeclareFormat(vcfio.FieldDecl{ID: "GQ", Number: "1", Type: "Float", Description: "Genotype quality"})
}

// Run streams every record from r to w, annotating biallelic sites and
// passing everything else through unchanged.
func Run(r *vcfio.Reader, w *vcfio.Writer, cfg Config, diag *Diagnostics) error {
	n := len(r.Header().SampleNames())
	gts := make([][2]int32, n)
	gls := make([][3]float64, n)

	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		if !rec.Biallelic() {
			if err := w.Write(rec); err != nil {
				return err
			}
			continue
		}
		if err := annotateRecord(rec, n, gts, gls, cfg, diag); err != nil {
			return fmt.Errorf("annotate: %s:%d: %w", rec.Chrom, rec.Pos, err)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func annotateRecord(rec *vcfio.Record, n int, gts [][2]int32, gls [][3]float64, cfg Config, diag *Diagnostics) error {
	for i := 0; i < n; i++ {
		a0, a1, _, called := rec.GT(i)
		if !called {
			gts[i] = [2]int32{gl.MissingAllele, gl.MissingAllele}
			continue
		}
		gts[i] = [2]int32{a0, a1}
		if vals, ok := rec.FormatFloats(i, "GL"); ok && len(vals) >= 3 {
			gls[i] = [3]float64{vals[0], vals[1], vals[2]}
		} else {
			gls[i] = [3]float64{0, 0, 0}
		}
	}

	table, counts := gl.Build(gls[:n], gts[:n])

	emCfg := cfg.emConfig()
	var errTrace []float64
	var af em.AlleleFreq
	if diag != nil && diag.OnRecordConverged != nil {
		af = em.EstimateAlleleFreqTrace(table, emCfg, func(_ int, err float64) {
			errTrace = append(errTrace, err)
		})
	} else {
		af = em.EstimateAlleleFreq(table, emCfg)
	}
	fic := popstat.InbreedingCoefficient(table, af)
	rsq := popstat.ImputationRsq(table, af)
	gf := em.EstimateGenotypeFreq(table, emCfg)
	pvalue, _ := popstat.HWELRTPvalue(table, af, gf)

	rec.RemoveInfo("AFmle")
	rec.SetInfoFloat("AFmle", af.Q)
	rec.RemoveInfo("ACmle")
	rec.SetInfoInt("ACmle", int(math.Round(af.Q*float64(counts.Total()))))
	rec.RemoveInfo("GFmle")
	rec.SetInfoFloats("GFmle", []float64{gf.F0, gf.F1, gf.F2})
	rec.RemoveInfo("FIC")
	rec.SetInfoFloat("FIC", fic)
	rec.RemoveInfo("RSQ")
	rec.SetInfoFloat("RSQ", rsq)
	rec.RemoveInfo("HWEpval")
	rec.SetInfoFloat("HWEpval", pvalue)

	for i := 0; i < n; i++ {
		a0, a1, phased, called := rec.GT(i)
		if !called {
			rec.SetFormatMissing(i, "GQ")
			continue
		}
		triple, ok := gl.NewTriple(gls[i][0], gls[i][1], gls[i][2])
		if !ok {
			rec.SetFormatMissing(i, "GQ")
			continue
		}
		gq := popstat.GenotypeQuality(triple, gf)
		rec.SetFormatFloat(i, "GQ", gq)
		if gq < cfg.GQThreshold {
			rec.SetGT(i, gl.MissingAllele, gl.MissingAllele, phased)
		} else {
			rec.SetGT(i, a0, a1, phased)
		}
	}

	if diag != nil {
		if diag.OnRecordConverged != nil {
			diag.OnRecordConverged(rec.Chrom, rec.Pos, errTrace)
		}
		if diag.OnRecordSummary != nil {
			diag.OnRecordSummary(af.Q, rsq)
		}
	}
	return nil
}
