package replicate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dasnellings/vcfaid/internal/vcfio"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.vcf")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp vcf: %v", err)
	}
	return path
}

func header(samples ...string) string {
	return `##fileformat=VCFv4.2
##contig=<ID=chr1,length=1000>
##INFO=<ID=PRECISE,Number=0,Type=Flag,Description="split-read evidence">
##FORMAT=<ID=GT,Number=1,Type=String,Description="genotype">
##FORMAT=<ID=DV,Number=1,Type=Integer,Description="discordant-pair alt reads">
##FORMAT=<ID=DR,Number=1,Type=Integer,Description="discordant-pair ref reads">
##FORMAT=<ID=RV,Number=1,Type=Integer,Description="split-read alt reads">
##FORMAT=<ID=RR,Number=1,Type=Integer,Description="split-read ref reads">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	` + strings.Join(samples, "\t") + "\n"
}

func runReplicate(t *testing.T, vcfBody string, pairs []Pair, cfg Config) string {
	t.Helper()
	path := writeTemp(t, vcfBody)
	r, _, err := vcfio.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if err := Run(r, pairs, cfg, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return buf.String()
}

// One carrier with ctrlBAF=0.40 (imprecise) and tumorAlt=3 against
// thresholds minBAF=0.25 minSupport=2 yields "id\t1"; dropping tumorAlt to 1
// yields "id\t0".
func TestReplicateFilterRareVariantCarrier(t *testing.T) {
	// 199 wild-type samples, one het carrier and a hom-ref tumor give
	// af = 1/402 ~ 0.0025.
	var samples []string
	var gts []string
	for i := 0; i < 199; i++ {
		samples = append(samples, fmt.Sprintf("wt%d", i))
		gts = append(gts, "0/0:0:100:0:100")
	}
	samples = append(samples, "ctrl", "tumor")
	gts = append(gts, "0/1:40:60:0:0", "0/0:3:10:0:0")

	vcf := header(samples...) + "chr1\t100\tsite\tA\tG\t.\t.\t.\tGT:DV:DR:RV:RR\t" + strings.Join(gts, "\t") + "\n"

	out := runReplicate(t, vcf, []Pair{{Control: "ctrl", Tumor: "tumor"}}, Config{MinBAF: 0.25, MinSupport: 2})
	if strings.TrimSpace(out) != "site\t1" {
		t.Errorf("output = %q, want %q", out, "site\t1")
	}

	gts[len(gts)-1] = "0/0:1:10:0:0" // tumorAlt drops to 1
	vcf2 := header(samples...) + "chr1\t100\tsite\tA\tG\t.\t.\t.\tGT:DV:DR:RV:RR\t" + strings.Join(gts, "\t") + "\n"
	out2 := runReplicate(t, vcf2, []Pair{{Control: "ctrl", Tumor: "tumor"}}, Config{MinBAF: 0.25, MinSupport: 2})
	if strings.TrimSpace(out2) != "site\t0" {
		t.Errorf("output = %q, want %q", out2, "site\t0")
	}
}

// A record with site af > 0.01 produces no output line.
func TestCommonVariantProducesNoLine(t *testing.T) {
	samples := []string{"ctrl", "tumor"}
	gts := []string{"0/1:40:60:0:0", "0/0:3:10:0:0"}
	vcf := header(samples...) + "chr1\t100\tsite\tA\tG\t.\t.\t.\tGT:DV:DR:RV:RR\t" + strings.Join(gts, "\t") + "\n"

	out := runReplicate(t, vcf, []Pair{{Control: "ctrl", Tumor: "tumor"}}, Config{MinBAF: 0.25, MinSupport: 2})
	if out != "" {
		t.Errorf("output = %q, want empty for a common variant (af=0.25)", out)
	}
}

func TestPreciseRecordUsesSplitReadCounts(t *testing.T) {
	// DV/DR would fail the thresholds; RV/RR carry the real evidence.
	names := []string{"ctrl", "tumor"}
	gts := []string{"0/1:0:0:40:60", "0/0:0:0:3:10"}
	for i := 0; i < 199; i++ {
		names = append(names, fmt.Sprintf("wt%d", i))
		gts = append(gts, "0/0:0:100:0:100")
	}

	vcf := header(names...) + "chr1\t100\tsite\tA\tG\t.\t.\tPRECISE\tGT:DV:DR:RV:RR\t" + strings.Join(gts, "\t") + "\n"
	out := runReplicate(t, vcf, []Pair{{Control: "ctrl", Tumor: "tumor"}}, Config{MinBAF: 0.25, MinSupport: 2})
	if strings.TrimSpace(out) != "site\t1" {
		t.Errorf("output = %q, want %q", out, "site\t1")
	}
}

// A zero-coverage carrier must never win the best-candidate slot ahead of
// a genuine carrier processed later: carrier A has no RV/RR support at all
// but high tumor support, carrier B has real support at lower tumor depth.
// B must win.
func TestZeroCoverageCarrierNeverWinsTiebreak(t *testing.T) {
	var samples []string
	var gts []string
	for i := 0; i < 198; i++ {
		samples = append(samples, fmt.Sprintf("wt%d", i))
		gts = append(gts, "0/0:0:0:0:100")
	}
	samples = append(samples, "ctrlA", "tumorA", "ctrlB", "tumorB")
	gts = append(gts,
		"0/1:0:0:0:0",  // ctrlA: zero RV/RR coverage
		"0/0:0:0:10:0", // tumorA: high alt support
		"0/1:0:0:3:1",  // ctrlB: RV=3, RR=1 -> baf=0.75
		"0/0:0:0:5:0",  // tumorB: alt support 5
	)

	vcf := header(samples...) + "chr1\t100\tsite\tA\tG\t.\t.\tPRECISE\tGT:DV:DR:RV:RR\t" + strings.Join(gts, "\t") + "\n"

	pairs := []Pair{{Control: "ctrlA", Tumor: "tumorA"}, {Control: "ctrlB", Tumor: "tumorB"}}
	out := runReplicate(t, vcf, pairs, Config{MinBAF: 0.25, MinSupport: 3})
	if strings.TrimSpace(out) != "site\t1" {
		t.Errorf("output = %q, want %q (carrier B should win the tie-break)", out, "site\t1")
	}
}

func TestReadPairsSupportsMixedSeparators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.tsv")
	if err := os.WriteFile(path, []byte("ctrlA,tumorA\nctrlB\ttumorB\nctrlC tumorC\n"), 0o644); err != nil {
		t.Fatalf("writing temp pairs file: %v", err)
	}
	pairs, err := ReadPairs(path)
	if err != nil {
		t.Fatalf("ReadPairs: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3", len(pairs))
	}
	if pairs[1] != (Pair{Control: "ctrlB", Tumor: "tumorB"}) {
		t.Errorf("pairs[1] = %+v, want {ctrlB tumorB}", pairs[1])
	}
}
