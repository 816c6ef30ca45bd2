// Package em implements the two fixed-point expectation-maximization loops
// used by the annotator: the HWE-constrained allele-frequency estimator and
// the unconstrained genotype-frequency estimator. Both iterate a posterior
// update until the squared error between successive iterates falls below
// epsilon or maxiter is reached.
package em

import "github.com/dasnellings/vcfaid/internal/gl"

// Config bounds an EM run.
type Config struct {
	Epsilon float64
	MaxIter int
}

// AlleleFreq is the HWE allele-frequency estimate (p, q) with p+q == 1.
type AlleleFreq struct {
	P, Q float64
}

// HWEGenotypeFreq returns the genotype-frequency vector implied by HWE:
// (p^2, 2pq, q^2).
func (af AlleleFreq) HWEGenotypeFreq() GenotypeFreq {
	return GenotypeFreq{
		F0: af.P * af.P,
		F1: 2 * af.P * af.Q,
		F2: af.Q * af.Q,
	}
}

// GenotypeFreq is a genotype-frequency triple (f0, f1, f2) summing to 1.
type GenotypeFreq struct {
	F0, F1, F2 float64
}

// EstimateAlleleFreq runs the HWE-constrained allele-frequency EM. The initial
// prior is p=q=0.5. On an empty table that initial prior (0.5, 0.5) is
// returned unchanged, per the "empty table is a no-op" edge case.
func EstimateAlleleFreq(table gl.Table, cfg Config) AlleleFreq {
	return EstimateAlleleFreqTrace(table, cfg, nil)
}

// EstimateAlleleFreqTrace behaves like EstimateAlleleFreq but invokes onIter
// with the squared convergence error after every iteration, for diagnostic
// plotting (see internal/annotate's verbose mode). onIter may be nil.
func EstimateAlleleFreqTrace(table gl.Table, cfg Config, onIter func(iter int, err float64)) AlleleFreq {
	af := AlleleFreq{P: 0.5, Q: 0.5}
	if len(table) == 0 {
		return af
	}

	n := float64(len(table))
	for iter := 0; iter < cfg.MaxIter; iter++ {
		g0 := af.P * af.P
		g1 := 2 * af.P * af.Q
		g2 := af.Q * af.Q

		var pSum, qSum float64
		for _, t := range table {
			w0 := g0 * t.AA
			w1 := g1 * t.Aa
			w2 := g2 * t.HomAlt()
			s := w0 + w1 + w2
			pSum += (w0 + 0.5*w1) / s
			qSum += (w2 + 0.5*w1) / s
		}
		newP := pSum / n
		newQ := qSum / n

		err := (af.P-newP)*(af.P-newP) + (af.Q-newQ)*(af.Q-newQ)
		af.P, af.Q = newP, newQ
		if onIter != nil {
			onIter(iter, err)
		}
		if err <= cfg.Epsilon {
			break
		}
	}
	return af
}

// EstimateGenotypeFreq runs the unconstrained genotype-frequency EM. The initial
// prior is (1/3, 1/3, 1/3).
func EstimateGenotypeFreq(table gl.Table, cfg Config) GenotypeFreq {
	gf := GenotypeFreq{F0: 1.0 / 3, F1: 1.0 / 3, F2: 1.0 / 3}
	if len(table) == 0 {
		return gf
	}

	n := float64(len(table))
	for iter := 0; iter < cfg.MaxIter; iter++ {
		var sum0, sum1, sum2 float64
		for _, t := range table {
			w0 := gf.F0 * t.AA
			w1 := gf.F1 * t.Aa
			w2 := gf.F2 * t.HomAlt()
			s := w0 + w1 + w2
			sum0 += w0 / s
			sum1 += w1 / s
			sum2 += w2 / s
		}
		new0 := sum0 / n
		new1 := sum1 / n
		new2 := sum2 / n

		err := (gf.F0-new0)*(gf.F0-new0) + (gf.F1-new1)*(gf.F1-new1) + (gf.F2-new2)*(gf.F2-new2)
		gf.F0, gf.F1, gf.F2 = new0, new1, new2
		if err <= cfg.Epsilon {
			break
		}
	}
	return gf
}
