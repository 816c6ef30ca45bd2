package em

import (
	"math"
	"testing"

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

var defaultCfg = Config{Epsilon: 1e-20, MaxIter: 1000}

func TestEstimateAlleleFreqEmptyTableIsNoOp(t *testing.T) {
	af := EstimateAlleleFreq(nil, defaultCfg)
	if af.P != 0.5 || af.Q != 0.5 {
		t.Fatalf("expected caller-initialized (0.5, 0.5), got %+v", af)
	}
}

func TestEstimateAlleleFreqSumsToOne(t *testing.T) {
	table := gl.Table{
		mustTriple(t, 0, -10, -10),
		mustTriple(t, -10, -10, 0),
	}
	af := EstimateAlleleFreq(table, defaultCfg)
	if math.Abs(af.P+af.Q-1) > 1e-6 {
		t.Fatalf("p+q = %v, want ~1", af.P+af.Q)
	}
	if math.Abs(af.P-0.5) > 1e-3 || math.Abs(af.Q-0.5) > 1e-3 {
		t.Errorf("af = %+v, want ~(0.5, 0.5)", af)
	}
}

func TestEstimateGenotypeFreqSumsToOneAndInRange(t *testing.T) {
	table := gl.Table{
		mustTriple(t, 0, -10, -10),
		mustTriple(t, -10, -10, 0),
		mustTriple(t, -10, 0, -10),
	}
	gf := EstimateGenotypeFreq(table, defaultCfg)
	sum := gf.F0 + gf.F1 + gf.F2
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("sum = %v, want ~1", sum)
	}
	for _, f := range []float64{gf.F0, gf.F1, gf.F2} {
		if f < 0 || f > 1 {
			t.Errorf("genotype frequency %v out of [0,1]", f)
		}
	}
}

func TestEstimateGenotypeFreqConvergesToConcentratedGenotype(t *testing.T) {
	table := make(gl.Table, 20)
	for i := range table {
		table[i] = mustTriple(t, 0, -10, -10) // all homozygous-ref
	}
	gf := EstimateGenotypeFreq(table, defaultCfg)
	if math.Abs(gf.F0-1) > 1e-4 {
		t.Errorf("F0 = %v, want ~1", gf.F0)
	}
	if gf.F1 > 1e-4 || gf.F2 > 1e-4 {
		t.Errorf("F1/F2 should be ~0, got F1=%v F2=%v", gf.F1, gf.F2)
	}
}

func TestEstimateAlleleFreqMonomorphic(t *testing.T) {
	table := make(gl.Table, 50)
	for i := range table {
		table[i] = mustTriple(t, 0, -10, -10)
	}
	af := EstimateAlleleFreq(table, defaultCfg)
	if math.Abs(af.P-1) > 1e-4 {
		t.Errorf("p = %v, want ~1", af.P)
	}
	if math.Abs(af.Q) > 1e-4 {
		t.Errorf("q = %v, want ~0", af.Q)
	}
}

func TestEstimateAlleleFreqTraceInvokesCallback(t *testing.T) {
	table := gl.Table{mustTriple(t, 0, -10, -10), mustTriple(t, -10, -10, 0)}
	var iters int
	EstimateAlleleFreqTrace(table, defaultCfg, func(iter int, err float64) {
		iters++
	})
	if iters == 0 {
		t.Fatalf("expected onIter to be invoked at least once")
	}
}
