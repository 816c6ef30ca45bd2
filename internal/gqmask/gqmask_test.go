package gqmask

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dasnellings/vcfaid/internal/vcfio"
)

const annotatedVCF = `##fileformat=VCFv4.2
##contig=<ID=chr1,length=1000>
##FORMAT=<ID=GT,Number=1,Type=String,Description="genotype">
##FORMAT=<ID=GQ,Number=1,Type=Float,Description="genotype quality">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	s1	s2	s3
chr1	100	.	A	G	.	.	.	GT:GQ	0/1:10.0	1/1:40.0	./.:.
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.vcf")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp vcf: %v", err)
	}
	return path
}

func runMask(t *testing.T, inPath string, threshold int) *vcfio.Record {
	t.Helper()
	r, h, err := vcfio.Open(inPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	outPath := filepath.Join(t.TempDir(), "out.vcf")
	w, err := vcfio.Create(outPath, h)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Run(r, w, threshold); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, _, err := vcfio.Open(outPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer r2.Close()
	rec, ok := r2.Next()
	if !ok {
		t.Fatalf("expected one record")
	}
	return rec
}

func TestMasksSamplesBelowThreshold(t *testing.T) {
	path := writeTemp(t, annotatedVCF)
	rec := runMask(t, path, 20)

	a0, a1, _, called := rec.GT(0)
	if called {
		t.Errorf("s1 (GQ=10) should be masked under threshold 20, got (%d, %d)", a0, a1)
	}
	a0, a1, _, called = rec.GT(1)
	if !called || a0 != 1 || a1 != 1 {
		t.Errorf("s2 (GQ=40) should survive threshold 20 unchanged, got (%d, %d, called=%v)", a0, a1, called)
	}
	_, _, _, called = rec.GT(2)
	if called {
		t.Errorf("s3 (already missing) should remain missing")
	}
}

// Property 8: masking at threshold T then again at threshold T is the
// same as masking once.
func TestMaskingIsIdempotentAtSameThreshold(t *testing.T) {
	path := writeTemp(t, annotatedVCF)

	r1, h1, err := vcfio.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	out1 := filepath.Join(t.TempDir(), "pass1.vcf")
	w1, err := vcfio.Create(out1, h1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Run(r1, w1, 20); err != nil {
		t.Fatalf("Run (pass 1): %v", err)
	}
	r1.Close()
	w1.Close()
	body1, _ := os.ReadFile(out1)

	r2, h2, err := vcfio.Open(out1)
	if err != nil {
		t.Fatalf("Open (pass2): %v", err)
	}
	out2 := filepath.Join(t.TempDir(), "pass2.vcf")
	w2, err := vcfio.Create(out2, h2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Run(r2, w2, 20); err != nil {
		t.Fatalf("Run (pass 2): %v", err)
	}
	r2.Close()
	w2.Close()
	body2, _ := os.ReadFile(out2)

	if string(body1) != string(body2) {
		t.Errorf("masking twice at the same threshold changed the output:\npass1:\n%s\npass2:\n%s", body1, body2)
	}
}
