// Package replicate implements the cross-sample replicate comparator: for
// rare variants, it checks whether a control sample's B-allele frequency
// and a matched tumor sample's alternate-allele read support are strong
// enough to call the variant a real, replicated event.
package replicate

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"

	"github.com/vertgenlab/gonomics/fileio"

	"github.com/dasnellings/vcfaid/internal/vcfio"
)

var fieldSplitter = regexp.MustCompile(`[,\t ]+`)

// Pair is one control/tumor replicate row.
type Pair struct {
	Control, Tumor string
}

// ReadPairs parses the sample-pair file: one row per pair,
// fields separated by comma, tab, or space; first token control, second
// tumor. Blank and comment lines are skipped by fileio.EasyNextRealLine.
func ReadPairs(path string) ([]Pair, error) {
	f := fileio.EasyOpen(path)
	defer f.Close()

	var pairs []Pair
	for line, done := fileio.EasyNextRealLine(f); !done; line, done = fileio.EasyNextRealLine(f) {
		fields := fieldSplitter.Split(line, -1)
		if len(fields) < 2 {
			return nil, fmt.Errorf("replicate: malformed sample pair row %q: want control and tumor names", line)
		}
		pairs = append(pairs, Pair{Control: fields[0], Tumor: fields[1]})
	}
	return pairs, nil
}

// Config bounds the BAF and tumor-support thresholds used to call a
// replicate.
type Config struct {
	MinBAF     float64
	MinSupport int
}

func sampleIndex(names []string) map[string]int {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return idx
}

func firstInt(rec *vcfio.Record, sampleIdx int, tag string) int {
	vals, ok := rec.FormatInts(sampleIdx, tag)
	if !ok || len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// baf returns NaN on zero coverage, matching the unguarded floating-point
// division the original C++ performs; the tie-break loop in processRecord
// relies on NaN comparisons always being false so a zero-coverage carrier
// can never win the "best" slot ahead of a genuine one.
func baf(num, den int) float64 {
	if num+den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(num+den)
}

func hardAlleleCounts(rec *vcfio.Record, numSamples int) (ac0, ac1 int) {
	for i := 0; i < numSamples; i++ {
		a0, a1, _, called := rec.GT(i)
		if !called {
			continue
		}
		if a0 == 0 {
			ac0++
		} else {
			ac1++
		}
		if a1 == 0 {
			ac0++
		} else {
			ac1++
		}
	}
	return ac0, ac1
}

// Run streams every record from r, writing one "id\tverdict" line to out
// for each record that passes the rare-variant gate (0 < af <= 0.01).
// Records that fail the gate produce no output line.
func Run(r *vcfio.Reader, pairs []Pair, cfg Config, out io.Writer) error {
	names := r.Header().SampleNames()
	idx := sampleIndex(names)
	bw := bufio.NewWriter(out)

	for {
		rec, ok := r.Next()
		if !ok {
			break
		}
		line, emit := processRecord(rec, names, idx, pairs, cfg)
		if !emit {
			continue
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func processRecord(rec *vcfio.Record, names []string, idx map[string]int, pairs []Pair, cfg Config) (string, bool) {
	ac0, ac1 := hardAlleleCounts(rec, len(names))
	total := ac0 + ac1
	if total == 0 {
		return "", false
	}
	af := float64(ac1) / float64(total)
	if !(af > 0 && af <= 0.01) {
		return "", false
	}

	precise := rec.HasInfoFlag("PRECISE")
	carrier := make([]bool, len(pairs))
	ctrlBAF := make([]float64, len(pairs))
	tumorAlt := make([]float64, len(pairs))

	for r, pair := range pairs {
		if ci, ok := idx[pair.Control]; ok {
			a0, a1, _, called := rec.GT(ci)
			if called && (a0 != 0 || a1 != 0) {
				carrier[r] = true
				if precise {
					ctrlBAF[r] = baf(firstInt(rec, ci, "RV"), firstInt(rec, ci, "RR"))
				} else {
					ctrlBAF[r] = baf(firstInt(rec, ci, "DV"), firstInt(rec, ci, "DR"))
				}
			}
		}
		if ti, ok := idx[pair.Tumor]; ok {
			if precise {
				tumorAlt[r] = float64(firstInt(rec, ti, "RV"))
			} else {
				tumorAlt[r] = float64(firstInt(rec, ti, "DV"))
			}
		}
	}

	bestBAF, bestSupport := -1.0, -1.0
	for r := range pairs {
		if !carrier[r] {
			continue
		}
		if tumorAlt[r] >= bestSupport && (ctrlBAF[r] >= cfg.MinBAF || ctrlBAF[r] >= bestBAF) {
			bestBAF = ctrlBAF[r]
			bestSupport = tumorAlt[r]
		}
	}

	verdict := 0
	if bestBAF >= cfg.MinBAF && bestSupport >= float64(cfg.MinSupport) {
		verdict = 1
	}
	return fmt.Sprintf("%s\t%d\n", rec.ID, verdict), true
}
