// Package gl implements the likelihood-triple data model shared by the
// EM estimators and derived statistics: per-sample genotype likelihoods,
// converted from log10 scale, and the called-sample table built from them.
package gl

import "math"

// Triple holds the three genotype likelihoods for one called sample, on the
// linear (not log10) scale: AA, Aa, aa.
type Triple struct {
	AA, Aa, aa float64
}

// HomAlt returns the homozygous-alt ("aa") likelihood. It exists because the
// field itself is unexported (the data model in spec.md names it lowercase
// to mirror genotype notation AA/Aa/aa) but EM/stat estimators in other
// internal packages need to read it.
func (t Triple) HomAlt() float64 {
	return t.aa
}

// NewTriple converts a sample's log10 genotype likelihoods to linear scale.
// ok is false when all three components underflow to zero, in which case
// the sample must be omitted from the likelihood table per the data model
// invariant that every triple's components sum to a strictly positive value.
func NewTriple(log10AA, log10Aa, log10aa float64) (t Triple, ok bool) {
	t = Triple{
		AA: math.Pow(10, log10AA),
		Aa: math.Pow(10, log10Aa),
		aa: math.Pow(10, log10aa),
	}
	return t, t.AA+t.Aa+t.aa > 0
}

// AlleleCounts tallies reference vs alternative hard-called alleles across
// all called samples at a site.
type AlleleCounts struct {
	Ref, Alt int
}

// Total returns ac0+ac1, i.e. twice the number of called samples.
func (c AlleleCounts) Total() int {
	return c.Ref + c.Alt
}

// MissingAllele is the sentinel used for one half of an uncalled genotype.
const MissingAllele = -1

// Table is an ordered sequence of likelihood triples, one per called sample.
// Insertion order does not affect the EM estimators; Build appends triples
// in the order the samples appear in the record.
type Table []Triple

// Build constructs the called-sample likelihood table and allele-count pair
// for a biallelic site from per-sample log10 GL triples and hard genotypes.
// A sample is called when both alleles of gt are non-missing; called samples
// whose GL triple is all-zero are counted toward the allele counts (the hard
// genotype is still known) but omitted from the returned table.
func Build(gl [][3]float64, gt [][2]int32) (Table, AlleleCounts) {
	var table Table
	var counts AlleleCounts
	for i := range gt {
		a0, a1 := gt[i][0], gt[i][1]
		if a0 == MissingAllele || a1 == MissingAllele {
			continue
		}
		if a0 == 0 {
			counts.Ref++
		} else {
			counts.Alt++
		}
		if a1 == 0 {
			counts.Ref++
		} else {
			counts.Alt++
		}
		if i >= len(gl) {
			continue
		}
		if t, ok := NewTriple(gl[i][0], gl[i][1], gl[i][2]); ok {
			table = append(table, t)
		}
	}
	return table, counts
}
