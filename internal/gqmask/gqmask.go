// Package gqmask implements the standalone GQ-to-missing filter: a second
// pass over an already-annotated stream that masks any sample whose
// integer GQ falls below a threshold, independent of the annotator in
// internal/annotate.
package gqmask

import (
	"github.com/dasnellings/vcfaid/internal/gl"
	"github.com/dasnellings/vcfaid/internal/vcfio"
)

// sampleGQ reads a sample's GQ FORMAT value as an integer, accepting either
// an Integer-typed GQ field or the Float-typed one the annotator in
// internal/annotate actually writes.
func sampleGQ(rec *vcfio.Record, sampleIdx int) (int, bool) {
	if ints, ok := rec.FormatInts(sampleIdx, "GQ"); ok && len(ints) > 0 {
		return ints[0], true
	}
	if floats, ok := rec.FormatFloats(sampleIdx, "GQ"); ok && len(floats) > 0 {
		return int(floats[0]), true
	}
	return 0, false
}

// Run streams every record from r to w, masking GT to missing for any
// sample whose FORMAT GQ is below threshold.
func Run(r *vcfio.Reader, w *vcfio.Writer, threshold int) error {
	n := len(r.Header().SampleNames())
	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		for i := 0; i < n; i++ {
			a0, a1, phased, called := rec.GT(i)
			if !called {
				continue
			}
			gq, ok := sampleGQ(rec, i)
			if !ok {
				continue
			}
			if gq < threshold {
				rec.SetGT(i, gl.MissingAllele, gl.MissingAllele, phased)
			} else {
				rec.SetGT(i, a0, a1, phased)
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
