package stream

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"tablekit/internal/mask"
	"tablekit/internal/table"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in     string
		outDir string
		gz     bool
		want   string
	}{
		{"/data/customers.csv", "", false, "/data/customers_masked.csv"},
		{"/data/customers.csv", "/out", true, "/out/customers_masked.csv.gz"},
		{"/data/customers.csv.gz", "", false, "/data/customers_masked.csv"},
		{"/data/customers.csv.gz", "", true, "/data/customers_masked.csv.gz"},
		// tab-delimited output is never compressed
		{"/data/customers.tsv", "", true, "/data/customers_masked.tsv"},
		{"/data/customers.tsv.gz", "/out", false, "/out/customers_masked.tsv"},
		// spreadsheet input flattens to csv
		{"/data/design.xlsx", "", false, "/data/design_masked.csv"},
		{"/data/design.xls", "/out", false, "/out/design_masked.csv"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, tt.outDir, tt.gz); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %v) = %q; want %q", tt.in, tt.outDir, tt.gz, got, tt.want)
		}
	}
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRun_SmallCSV(t *testing.T) {
	in := writeInput(t, "people.csv", "id,name\n1,alice\n2,bob\n3,carol\n")

	sum, err := Run(context.Background(), Job{
		Name:      "test",
		InputPath: in,
		Policy:    mask.Policy{Columns: []string{"name"}, Method: mask.MethodFull},
		ReadOpts:  table.ReadOptions{HasHeader: true},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Rows != 3 || sum.Batches != 1 {
		t.Fatalf("summary = %+v; want 3 rows in 1 batch", sum)
	}
	if filepath.Base(sum.OutputPath) != "people_masked.csv" {
		t.Fatalf("output path = %s", sum.OutputPath)
	}

	want := "\ufeff" + "id,name\n1,****\n2,****\n3,****\n"
	if got := string(readAll(t, sum.OutputPath)); got != want {
		t.Fatalf("output = %q; want %q", got, want)
	}
	if sum.OutputBytes != int64(len(want)) {
		t.Fatalf("OutputBytes = %d; want %d", sum.OutputBytes, len(want))
	}
	if sum.Fingerprint == 0 {
		t.Fatal("fingerprint not computed")
	}
}

/*
TestRun_BatchSizeEquivalence is the core streaming property: output bytes
must not depend on the batch size. The same input masked with tiny batches
and with one huge batch has to produce byte-identical files and identical
fingerprints; only the batch count may differ.
*/
func TestRun_BatchSizeEquivalence(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,email,note\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&b, "%d,user%d@example.com,note %d\n", i, i%97, i)
	}
	in := writeInput(t, "big.csv", b.String())

	policy := mask.Policy{Columns: []string{"email"}, Method: mask.MethodHash, Salt: "s1"}

	run := func(chunk int, outDir string) Summary {
		t.Helper()
		sum, err := Run(context.Background(), Job{
			Name:      "equiv",
			InputPath: in,
			Policy:    policy,
			ChunkSize: chunk,
			OutputDir: outDir,
			ReadOpts:  table.ReadOptions{HasHeader: true},
		}, nil, nil)
		if err != nil {
			t.Fatalf("Run(chunk=%d): %v", chunk, err)
		}
		return sum
	}

	small := run(250, t.TempDir())
	big := run(100_000, t.TempDir())

	if small.Batches != 4 || big.Batches != 1 {
		t.Fatalf("batches = %d and %d; want 4 and 1", small.Batches, big.Batches)
	}
	if small.Rows != 1000 || big.Rows != 1000 {
		t.Fatalf("rows = %d and %d; want 1000", small.Rows, big.Rows)
	}

	sb := readAll(t, small.OutputPath)
	bb := readAll(t, big.OutputPath)
	if !bytes.Equal(sb, bb) {
		t.Fatal("batched and whole-file outputs differ")
	}
	if small.Fingerprint != big.Fingerprint {
		t.Fatalf("fingerprints differ: %x vs %x", small.Fingerprint, big.Fingerprint)
	}
}

func TestRun_TokenizeAcrossBatches(t *testing.T) {
	// Repeated values span batch boundaries; the token must stay stable.
	in := writeInput(t, "names.csv", "name\nalice\nbob\nalice\nbob\nalice\n")

	reg := mask.NewTokenRegistry()
	sum, err := Run(context.Background(), Job{
		Name:      "tok",
		InputPath: in,
		Policy:    mask.Policy{Columns: []string{"name"}, Method: mask.MethodTokenize},
		ChunkSize: 2,
		ReadOpts:  table.ReadOptions{HasHeader: true},
	}, reg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Batches != 3 {
		t.Fatalf("batches = %d; want 3", sum.Batches)
	}

	out, err := table.Read(context.Background(), sum.OutputPath, table.ReadOptions{HasHeader: true})
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	alice := out.Rows[0][0]
	if out.Rows[2][0] != alice || out.Rows[4][0] != alice {
		t.Fatalf("token unstable across batches: %v", out.Rows)
	}
	if out.Rows[1][0] == alice {
		t.Fatal("distinct values share a token")
	}
	if reg.Len() != 2 {
		t.Fatalf("registry size = %d; want 2", reg.Len())
	}
}

func TestRun_GzipOutput(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,name\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%d,person%d\n", i, i)
	}
	in := writeInput(t, "people.csv", b.String())

	policy := mask.Policy{Columns: []string{"name"}, Method: mask.MethodFull}

	plain, err := Run(context.Background(), Job{
		Name: "gz", InputPath: in, Policy: policy, ChunkSize: 3,
		OutputDir: t.TempDir(), ReadOpts: table.ReadOptions{HasHeader: true},
	}, nil, nil)
	if err != nil {
		t.Fatalf("plain run: %v", err)
	}

	gzSum, err := Run(context.Background(), Job{
		Name: "gz", InputPath: in, Policy: policy, ChunkSize: 3, Gzip: true,
		OutputDir: t.TempDir(), ReadOpts: table.ReadOptions{HasHeader: true},
	}, nil, nil)
	if err != nil {
		t.Fatalf("gzip run: %v", err)
	}
	if !strings.HasSuffix(gzSum.OutputPath, ".csv.gz") {
		t.Fatalf("gzip output path = %s", gzSum.OutputPath)
	}

	// Per-batch gzip members must concatenate into one valid stream that
	// decodes to exactly the plain output.
	f, err := os.Open(gzSum.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	decoded, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, readAll(t, plain.OutputPath)) {
		t.Fatal("gzip output does not decode to the plain output")
	}

	// The fingerprint hashes logical bytes, so compression must not move it.
	if plain.Fingerprint != gzSum.Fingerprint {
		t.Fatalf("fingerprints differ: %x vs %x", plain.Fingerprint, gzSum.Fingerprint)
	}
}

func TestRun_Excel(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"id", "email"},
		{"1", "a@example.com"},
		{"2", "b@example.com"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	in := filepath.Join(t.TempDir(), "people.xlsx")
	if err := f.SaveAs(in); err != nil {
		t.Fatal(err)
	}
	f.Close()

	sum, err := Run(context.Background(), Job{
		Name:      "xlsx",
		InputPath: in,
		Policy:    mask.Policy{Columns: []string{"email"}, Method: mask.MethodPreset, Preset: mask.PresetEmail},
		ReadOpts:  table.ReadOptions{HasHeader: true},
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(sum.OutputPath) != "people_masked.csv" {
		t.Fatalf("output path = %s", sum.OutputPath)
	}
	if sum.Rows != 2 || sum.Batches != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	out, err := table.Read(context.Background(), sum.OutputPath, table.ReadOptions{HasHeader: true})
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if out.Rows[0][1] != "a@"+strings.Repeat("*", len("example.com")) {
		t.Fatalf("masked email = %q", out.Rows[0][1])
	}
}

func TestRun_BadPolicyWritesNothing(t *testing.T) {
	in := writeInput(t, "people.csv", "id,name\n1,alice\n")
	outDir := t.TempDir()

	_, err := Run(context.Background(), Job{
		Name:      "bad",
		InputPath: in,
		Policy:    mask.Policy{Columns: []string{"name"}, Method: mask.MethodRegex}, // no pattern
		OutputDir: outDir,
		ReadOpts:  table.ReadOptions{HasHeader: true},
	}, nil, nil)
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	entries, rerr := os.ReadDir(outDir)
	if rerr != nil {
		t.Fatal(rerr)
	}
	if len(entries) != 0 {
		t.Fatalf("output written despite config error: %v", entries)
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	in := writeInput(t, "people.csv", "id\n1\n2\n3\n4\n")

	var calls []int
	_, err := Run(context.Background(), Job{
		Name:      "prog",
		InputPath: in,
		Policy:    mask.Policy{Columns: []string{"id"}, Method: mask.MethodFull},
		ChunkSize: 2,
		ReadOpts:  table.ReadOptions{HasHeader: true},
	}, nil, func(rows int, _ time.Duration) {
		calls = append(calls, rows)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(calls) != 2 || calls[0] != 2 || calls[1] != 4 {
		t.Fatalf("progress calls = %v; want [2 4]", calls)
	}
}
