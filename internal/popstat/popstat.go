// Package popstat implements the closed-form statistics derived from the EM
// estimates in internal/em: the inbreeding coefficient F, imputation quality
// rsq, the HWE likelihood-ratio test, and per-sample genotype quality.
package popstat

import (
	"math"

	"github.com/dasnellings/vcfaid/internal/em"
	"github.com/dasnellings/vcfaid/internal/gl"
	"gonum.org/v1/gonum/stat/distuv"
)

// InbreedingCoefficient computes F, the excess (or deficit) of
// heterozygotes relative to Hardy-Weinberg expectation. On an empty table it
// returns 0, the caller-initialized default.
func InbreedingCoefficient(table gl.Table, af em.AlleleFreq) float64 {
	if len(table) == 0 {
		return 0
	}
	hwe := af.HWEGenotypeFreq()

	var sumHet float64
	for _, t := range table {
		sumHet += (t.Aa * hwe.F1) / (t.AA*hwe.F0 + t.Aa*hwe.F1 + t.HomAlt()*hwe.F2)
	}
	denominator := float64(len(table)) * hwe.F1
	return 1 - sumHet/denominator
}

// ImputationRsq computes the observed-over-expected dosage variance ratio
// for a single site. It follows arfer.h's reference math literally and does
// not special-case the expected variance (2pq): when 2pq is exactly zero the
// division returns NaN or +Inf. At a monomorphic site the allele-frequency
// EM stops with q tiny but nonzero while every dosage is the same, so the
// ratio there is 0 (documented in DESIGN.md).
func ImputationRsq(table gl.Table, af em.AlleleFreq) float64 {
	if len(table) == 0 {
		return 0
	}
	hwe := af.HWEGenotypeFreq()
	n := float64(len(table))

	var sumD, sumD2 float64
	for _, t := range table {
		w0 := t.AA * hwe.F0
		w1 := t.Aa * hwe.F1
		w2 := t.HomAlt() * hwe.F2
		s := w0 + w1 + w2
		p0, p1 := w0/s, w1/s
		d := 2*p0 + p1
		sumD += d
		sumD2 += d * d
	}
	meanD := sumD / n
	varD := (sumD2 - n*meanD*meanD) / (n - 1)
	if varD < 0 {
		varD = 0
	}
	return varD / hwe.F1
}

// HWELRTPvalue computes the Hardy-Weinberg-equilibrium likelihood-ratio test,
// returning both the chi-squared statistic and its upper-tail p-value
// (1 degree of freedom). On an empty table it returns p-value 1 and
// statistic 0, the caller-initialized defaults (statistic 0 implies p-value 1).
func HWELRTPvalue(table gl.Table, af em.AlleleFreq, gf em.GenotypeFreq) (pvalue, statistic float64) {
	if len(table) == 0 {
		return 1, 0
	}
	hwe := af.HWEGenotypeFreq()

	var lnull, lalt float64
	for _, t := range table {
		lnull += math.Log(t.AA*hwe.F0 + t.Aa*hwe.F1 + t.HomAlt()*hwe.F2)
		lalt += math.Log(t.AA*gf.F0 + t.Aa*gf.F1 + t.HomAlt()*gf.F2)
	}
	statistic = -2 * (lnull - lalt)
	if statistic < 0 {
		statistic = 0
	}
	chisq := distuv.ChiSquared{K: 1}
	pvalue = 1 - chisq.CDF(statistic)
	return pvalue, statistic
}

// maxGQ is the Phred-scale clamp applied to every computed GQ.
const maxGQ = 99

// GenotypeQuality computes a per-sample GQ (Phred-scaled genotype quality)
// from one sample's likelihood triple and the unconstrained genotype-
// frequency MLE. k*, the
// index used in the GQ formula, is the genotype with the largest raw
// likelihood (ties broken toward the smallest index); because the triple's
// components are a monotonic (10^x) transform of the log10 GLs, comparing
// the triple directly is equivalent to comparing the GLs themselves. The
// returned value is clamped to maxGQ and rounded to one decimal place.
func GenotypeQuality(t gl.Triple, gf em.GenotypeFreq) float64 {
	p := [3]float64{gf.F0 * t.AA, gf.F1 * t.Aa, gf.F2 * t.HomAlt()}
	s := p[0] + p[1] + p[2]

	rawGL := [3]float64{t.AA, t.Aa, t.HomAlt()}
	bestIdx := 0
	for k := 1; k < 3; k++ {
		if rawGL[k] > rawGL[bestIdx] {
			bestIdx = k
		}
	}

	gq := -10 * math.Log10(1-p[bestIdx]/s)
	if gq > maxGQ {
		gq = maxGQ
	}
	return math.Round(gq*10) / 10
}
