// Package subset implements two mutually exclusive record selectors:
// filtering (and optionally scoring) by a variant-id table, or filtering
// by a coordinate-pair table translated through the reader's chromosome
// dictionary.
package subset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/fileio"

	"github.com/dasnellings/vcfaid/internal/vcfio"
)

var fieldSplitter = regexp.MustCompile(`[,\t ]+`)

func splitFields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return fieldSplitter.Split(line, -1)
}

// ScoreTable maps a variant id to an optional score. HasScores is true only
// when every row in the source file carried a score.
type ScoreTable struct {
	Scores    map[string]float64
	HasScores bool
}

// ReadScoreTable parses the id/score file: one id per row, with
// an optional numeric score, fields separated by comma, tab, or space.
// Uses fileio.EasyOpen/EasyNextRealLine for row-at-a-time parsing rather
// than a hand-rolled scanner.
func ReadScoreTable(path string) (ScoreTable, error) {
	st := ScoreTable{Scores: make(map[string]float64), HasScores: true}
	f := fileio.EasyOpen(path)
	defer f.Close()

	var rows int
	for line, done := fileio.EasyNextRealLine(f); !done; line, done = fileio.EasyNextRealLine(f) {
		fields := splitFields(line)
		if fields == nil {
			continue
		}
		rows++
		id := fields[0]
		if len(fields) < 2 {
			st.HasScores = false
			st.Scores[id] = 0
			continue
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return ScoreTable{}, fmt.Errorf("subset: malformed score %q for id %q: %w", fields[1], id, err)
		}
		st.Scores[id] = score
	}
	if rows == 0 {
		st.HasScores = false
	}
	return st, nil
}

// Span is one (start, end) interval of the coordinate-pair table, keyed by
// the (chromA, chromB) pair it was declared under.
type Span struct {
	Start, End int
}

// PositionSet is the parsed four-column coordinate table,
// keyed by (chromIDA, chromIDB).
type PositionSet map[[2]int][]Span

// ReadPositionSet parses the position file, translating chromosome names
// to the dictionary ids of h. Rows naming an unknown chromosome are
// silently dropped.
func ReadPositionSet(path string, h *vcfio.Header) (PositionSet, error) {
	ps := make(PositionSet)
	f := fileio.EasyOpen(path)
	defer f.Close()

	for line, done := fileio.EasyNextRealLine(f); !done; line, done = fileio.EasyNextRealLine(f) {
		fields := splitFields(line)
		if fields == nil {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("subset: malformed position row %q: want 4 fields", line)
		}
		chromA, startA, chromB, endB := fields[0], fields[1], fields[2], fields[3]
		idA, okA := h.ChromID(chromA)
		idB, okB := h.ChromID(chromB)
		if !okA || !okB {
			continue
		}
		start, err := strconv.Atoi(startA)
		if err != nil {
			return nil, fmt.Errorf("subset: malformed startA %q: %w", startA, err)
		}
		end, err := strconv.Atoi(endB)
		if err != nil {
			return nil, fmt.Errorf("subset: malformed endB %q: %w", endB, err)
		}
		key := [2]int{idA, idB}
		ps[key] = append(ps[key], Span{Start: start, End: end})
	}
	return ps, nil
}

func (ps PositionSet) contains(chromA, chromB int, start, end int) bool {
	for _, span := range ps[[2]int{chromA, chromB}] {
		if span.Start == start && span.End == end {
			return true
		}
	}
	return false
}

// DeclareScoreTag registers the INFO SCORE tag id-mode writes, so a caller
// can pass the same header to vcfio.Create.
func DeclareScoreTag(h *vcfio.Header) {
	h.DeclareInfo(vcfio.FieldDecl{ID: "SCORE", Number: "1", Type: "Float", Description: "Score carried over from the subset id/score table"})
}

// Config selects exactly one of the two subset modes: id/score mode when
// Scores is set, coordinate-pair mode when Positions is set.
type Config struct {
	Scores    *ScoreTable
	Positions *PositionSet
}

// PrepareHeader declares any INFO tags cfg's mode will write, so a caller
// can pass the same header to vcfio.Create before calling Run.
func PrepareHeader(h *vcfio.Header, cfg Config) {
	if cfg.Scores != nil {
		DeclareScoreTag(h)
	}
}

// Run filters r to w according to cfg's mode. Exactly one of cfg.Scores or
// cfg.Positions must be set.
func Run(r *vcfio.Reader, w *vcfio.Writer, cfg Config) error {
	switch {
	case cfg.Scores != nil && cfg.Positions == nil:
		return RunIDMode(r, w, *cfg.Scores)
	case cfg.Positions != nil && cfg.Scores == nil:
		return RunPositionMode(r, w, *cfg.Positions)
	default:
		return fmt.Errorf("subset: Config must set exactly one of Scores or Positions")
	}
}

// RunIDMode filters r to w, keeping records whose ID is a key of st.Scores
// and, if every source row carried a score, rewriting INFO SCORE on each
// retained record.
func RunIDMode(r *vcfio.Reader, w *vcfio.Writer, st ScoreTable) error {
	for {
		rec, ok := r.Next()
		if !ok {
			return nil
		}
		score, keep := st.Scores[rec.ID]
		if !keep {
			continue
		}
		if st.HasScores {
			rec.RemoveInfo("SCORE")
			rec.SetInfoFloat("SCORE", score)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
}

// RunPositionMode filters r to w, keeping records whose (pos+1, END) lies
// in ps for the record's (chrom, CHR2) pair.
func RunPositionMode(r *vcfio.Reader, w *vcfio.Writer, ps PositionSet) error {
	h := r.Header()
	for {
		rec, ok := r.Next()
		if !ok {
			return nil
		}
		chrom, ok := h.ChromID(rec.Chrom)
		if !ok {
			continue
		}
		chr2Raw, ok := rec.InfoString("CHR2")
		if !ok {
			continue
		}
		chrom2, ok := h.ChromID(chr2Raw)
		if !ok {
			continue
		}
		end, ok := rec.InfoFloat("END")
		if !ok {
			continue
		}
		if !ps.contains(chrom, chrom2, rec.Pos+1, int(end)) {
			continue
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
}
