package popstat

import (
	"math"
	"testing"

	"github.com/dasnellings/vcfaid/internal/em"
	"github.com/dasnellings/vcfaid/internal/gl"
)

func mustTriple(t *testing.T, logAA, logAa, logaa float64) gl.Triple {
	t.Helper()
	tr, ok := gl.NewTriple(logAA, logAa, logaa)
	if !ok {
		t.Fatalf("triple unexpectedly unusable")
	}
	return tr
}

var cfg = em.Config{Epsilon: 1e-20, MaxIter: 1000}

func TestInbreedingCoefficientEmptyTable(t *testing.T) {
	if f := InbreedingCoefficient(nil, em.AlleleFreq{P: 0.5, Q: 0.5}); f != 0 {
		t.Fatalf("F = %v, want 0 on empty table", f)
	}
}

func TestInbreedingCoefficientAllHetIsFullyExcess(t *testing.T) {
	table := make(gl.Table, 20)
	for i := range table {
		table[i] = mustTriple(t, -10, 0, -10) // confidently heterozygous
	}
	af := em.EstimateAlleleFreq(table, cfg)
	f := InbreedingCoefficient(table, af)
	// observed heterozygosity ~1, well above the HWE expectation at p~0.5:
	// F should be strongly negative (excess heterozygosity).
	if f >= 0 {
		t.Errorf("F = %v, want a strongly negative value for an all-het population", f)
	}
}

func TestImputationRsqPerfectCertaintyIsOne(t *testing.T) {
	table := gl.Table{}
	// 1 AA : 2 Aa : 1 aa, the HWE proportions at p=q=0.5.
	for i := 0; i < 25; i++ {
		table = append(table, mustTriple(t, 0, -10, -10)) // AA
		table = append(table, mustTriple(t, -10, 0, -10)) // Aa
		table = append(table, mustTriple(t, -10, 0, -10)) // Aa
		table = append(table, mustTriple(t, -10, -10, 0)) // aa
	}
	af := em.EstimateAlleleFreq(table, cfg)
	rsq := ImputationRsq(table, af)
	// The N-1 sample-variance denominator makes the ratio N/(N-1), i.e. ~1.
	want := float64(len(table)) / float64(len(table)-1)
	if math.Abs(rsq-want) > 1e-2 {
		t.Errorf("rsq = %v, want ~%v for perfectly confident dosages matching HWE", rsq, want)
	}
}

func TestImputationRsqMonomorphicIsUndefined(t *testing.T) {
	table := make(gl.Table, 10)
	for i := range table {
		table[i] = mustTriple(t, 0, -10, -10)
	}
	af := em.EstimateAlleleFreq(table, cfg)
	rsq := ImputationRsq(table, af)
	if !math.IsNaN(rsq) && !math.IsInf(rsq, 0) {
		t.Errorf("rsq = %v, want NaN or Inf at a monomorphic site (2pq == 0)", rsq)
	}
}

func TestHWELRTPvalueAtExactHWEIsNearOne(t *testing.T) {
	table := gl.Table{}
	// construct hard calls that are themselves exactly in HWE proportions
	// at p=q=0.5: 1 AA : 2 Aa : 1 aa.
	for i := 0; i < 25; i++ {
		table = append(table, mustTriple(t, 0, -10, -10))
		table = append(table, mustTriple(t, -10, 0, -10))
		table = append(table, mustTriple(t, -10, 0, -10))
		table = append(table, mustTriple(t, -10, -10, 0))
	}
	af := em.EstimateAlleleFreq(table, cfg)
	gf := em.EstimateGenotypeFreq(table, cfg)
	pvalue, statistic := HWELRTPvalue(table, af, gf)
	if pvalue < 0 || pvalue > 1 {
		t.Fatalf("pvalue = %v, want in [0,1]", pvalue)
	}
	if statistic > 1e-2 {
		t.Errorf("statistic = %v, want ~0 when the unconstrained MLE matches HWE", statistic)
	}
	if pvalue < 0.9 {
		t.Errorf("pvalue = %v, want close to 1 when the unconstrained MLE matches HWE", pvalue)
	}
}

func TestHWELRTPvalueEmptyTable(t *testing.T) {
	pvalue, statistic := HWELRTPvalue(nil, em.AlleleFreq{P: 0.5, Q: 0.5}, em.GenotypeFreq{F0: 1.0 / 3, F1: 1.0 / 3, F2: 1.0 / 3})
	if pvalue != 1 || statistic != 0 {
		t.Fatalf("got (pvalue=%v, statistic=%v), want (1, 0) on empty table", pvalue, statistic)
	}
}

func TestHWELRTPvalueDetectsExcessHeterozygosity(t *testing.T) {
	table := make(gl.Table, 40)
	for i := range table {
		table[i] = mustTriple(t, -10, 0, -10) // everyone confidently heterozygous
	}
	af := em.EstimateAlleleFreq(table, cfg)
	gf := em.EstimateGenotypeFreq(table, cfg)
	pvalue, statistic := HWELRTPvalue(table, af, gf)
	if statistic <= 0 {
		t.Errorf("statistic = %v, want > 0 for a population far from HWE", statistic)
	}
	if pvalue > 0.05 {
		t.Errorf("pvalue = %v, want a small p-value for a population far from HWE", pvalue)
	}
}

func TestGenotypeQualityTieBreaksTowardSmallestIndex(t *testing.T) {
	// all three genotype likelihoods equal: k* must resolve to 0 (AA),
	// not to whichever genotype the prior favors.
	tr := mustTriple(t, -1, -1, -1)
	gf := em.GenotypeFreq{F0: 0.1, F1: 0.1, F2: 0.8}
	gq := GenotypeQuality(tr, gf)

	// With p_0 the smallest posterior weight despite winning the raw-GL
	// tie, the resulting GQ must differ from what picking the
	// highest-posterior genotype (aa) would have produced.
	trHigh := mustTriple(t, -1, -1, 0) // now aa is unambiguously the best GL
	gqHigh := GenotypeQuality(trHigh, gf)
	if gq == gqHigh {
		t.Fatalf("expected tie-break on raw GL (favoring AA) to diverge from an unambiguous aa call, both gave %v", gq)
	}
}

func TestGenotypeQualityClampedToMax(t *testing.T) {
	tr := mustTriple(t, 0, -300, -300)
	gf := em.GenotypeFreq{F0: 0.999999999999, F1: 1e-13, F2: 1e-13}
	gq := GenotypeQuality(tr, gf)
	if gq > maxGQ {
		t.Fatalf("gq = %v, want <= %v", gq, maxGQ)
	}
}

func TestGenotypeQualityRoundedToOneDecimal(t *testing.T) {
	tr := mustTriple(t, 0, -1, -2)
	gf := em.GenotypeFreq{F0: 0.5, F1: 0.3, F2: 0.2}
	gq := GenotypeQuality(tr, gf)
	scaled := gq * 10
	if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
		t.Errorf("gq = %v, not rounded to one decimal place", gq)
	}
}
