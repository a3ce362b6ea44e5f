// Package stream masks large delimited files in fixed-size row batches,
// appending each masked batch to the output file so memory use stays bounded
// by the batch size.
//
// Behavior:
//   - Batches are processed strictly in input order; there is no parallelism,
//     so output row order always equals input row order and tokenization
//     state accumulates deterministically across batches.
//   - The output file is opened in append mode per batch and closed between
//     batches; no file handle spans the whole run.
//   - Any read or write error aborts the run. A partially written output
//     file is left in place — there is no atomic rename or rollback, and a
//     failed run must be re-run from scratch.
//   - Excel input has no incremental reader: the whole file is loaded,
//     masked in one pass, and written once. The caller is warned about the
//     full-load cost.
package stream

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"tablekit/internal/mask"
	"tablekit/internal/metrics"
	"tablekit/internal/table"
)

// DefaultChunkSize is the batch size used when the job does not set one.
const DefaultChunkSize = 100_000

// Job describes one streaming masking run.
type Job struct {
	// Name labels the run in metrics and logs.
	Name string

	// InputPath is the file to mask. The format is inferred from the suffix.
	InputPath string

	// Policy is the masking policy to apply.
	Policy mask.Policy

	// ChunkSize is the number of rows per batch; non-positive means
	// DefaultChunkSize.
	ChunkSize int

	// OutputDir is the output directory; empty means alongside the input.
	OutputDir string

	// Gzip compresses comma-delimited output (.csv.gz). Tab-delimited
	// output is never compressed.
	Gzip bool

	// ReadOpts configures the input reader (header, sheet, quote handling).
	ReadOpts table.ReadOptions
}

// Summary reports what a completed run did. All fields are advisory; the
// output file itself is the product.
type Summary struct {
	OutputPath  string
	Rows        int
	Batches     int
	Elapsed     time.Duration
	OutputBytes int64

	// Fingerprint is an xxh3 hash of the logical (uncompressed) output
	// bytes, usable to compare runs or verify copies cheaply.
	Fingerprint uint64
}

// Progress receives advisory progress updates after each batch. It has no
// effect on correctness and may be nil.
type Progress func(rows int, elapsed time.Duration)

// strippedSuffixes are removed from the input basename before the _masked
// suffix and output extension are appended. Order matters: compound
// suffixes are tested before their tails.
var strippedSuffixes = []string{".csv.gz", ".tsv.gz", ".xlsx", ".xls", ".csv", ".tsv"}

// OutputPath derives the output filename for an input path: the basename
// with any recognized suffix stripped, "_masked" appended, the inferred
// delimiter extension, and ".gz" when gzip output applies (comma-delimited
// only).
func OutputPath(inputPath, outputDir string, gzipOut bool) string {
	base := filepath.Base(inputPath)
	lower := strings.ToLower(base)
	for _, suf := range strippedSuffixes {
		if strings.HasSuffix(lower, suf) {
			base = base[:len(base)-len(suf)]
			break
		}
	}

	ext := ".csv"
	if table.DetectFormat(inputPath).Delimiter() == '\t' {
		ext = ".tsv"
	}
	name := base + "_masked" + ext
	if gzipOut && ext == ".csv" {
		name += ".gz"
	}

	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}
	return filepath.Join(outputDir, name)
}

// Run executes one masking run and returns its summary.
//
// Configuration errors (bad policy) surface before any output is written.
// Read/write errors abort the run mid-stream, leaving partial output.
func Run(ctx context.Context, job Job, reg *mask.TokenRegistry, progress Progress) (sum Summary, err error) {
	start := time.Now()

	masker, err := mask.NewMasker(job.Policy, reg)
	if err != nil {
		return Summary{}, err
	}

	sum.OutputPath = OutputPath(job.InputPath, job.OutputDir, job.Gzip)
	defer func() {
		sum.Elapsed = time.Since(start)
		metrics.RecordStep(job.Name, "stream", err, sum.Elapsed)
	}()

	format := table.DetectFormat(job.InputPath)
	w := &appendWriter{
		path:   sum.OutputPath,
		delim:  format.Delimiter(),
		gzip:   job.Gzip && format.Delimiter() == ',',
		hasher: xxh3.New(),
	}

	if format.Streamable() {
		err = runStreamed(ctx, job, masker, w, &sum, start, progress)
	} else {
		err = runWholeFile(ctx, job, masker, w, &sum)
	}
	if err != nil {
		return sum, err
	}

	if fi, statErr := os.Stat(sum.OutputPath); statErr == nil {
		sum.OutputBytes = fi.Size()
	}
	sum.Fingerprint = w.hasher.Sum64()
	return sum, nil
}

// runStreamed is the batched CSV/TSV path.
func runStreamed(ctx context.Context, job Job, masker *mask.Masker, w *appendWriter, sum *Summary, start time.Time, progress Progress) error {
	rr, err := table.OpenStream(ctx, job.InputPath, job.ReadOpts)
	if err != nil {
		return err
	}
	defer rr.Close()

	chunk := job.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	// Header goes out once, before the first batch.
	if job.ReadOpts.HasHeader {
		if err := w.append([][]string{rr.Columns()}); err != nil {
			return err
		}
	}

	for {
		batch, rerr := rr.ReadBatch(ctx, chunk)
		if len(batch) > 0 {
			masker.MaskRows(rr.Columns(), batch)
			if err := w.append(batch); err != nil {
				return err
			}
			sum.Rows += len(batch)
			sum.Batches++
			metrics.RecordRows(job.Name, "processed", len(batch))
			metrics.RecordBatch(job.Name)
			if progress != nil {
				progress(sum.Rows, time.Since(start))
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr // abort; partial output stays in place
		}
	}
}

// runWholeFile is the Excel fallback: load, mask, write once.
func runWholeFile(ctx context.Context, job Job, masker *mask.Masker, w *appendWriter, sum *Summary) error {
	slog.Warn("excel input has no streaming reader; loading the whole file",
		"path", job.InputPath)

	t, err := table.Read(ctx, job.InputPath, job.ReadOpts)
	if err != nil {
		return err
	}
	masker.Apply(t)

	if job.ReadOpts.HasHeader {
		if err := w.append([][]string{t.Columns}); err != nil {
			return err
		}
	}
	if err := w.append(t.Rows); err != nil {
		return err
	}
	sum.Rows = len(t.Rows)
	sum.Batches = 1
	metrics.RecordRows(job.Name, "processed", len(t.Rows))
	metrics.RecordBatch(job.Name)
	return nil
}

// appendWriter appends row batches to the output file, opening and closing
// the file per call. It writes a UTF-8 BOM before the first bytes (matching
// the encoding spreadsheet tools expect) and feeds every logical byte to the
// fingerprint hasher — before compression, so the fingerprint is stable
// whether or not gzip output is enabled.
type appendWriter struct {
	path     string
	delim    rune
	gzip     bool
	hasher   *xxh3.Hasher
	wroteBOM bool
}

func (w *appendWriter) append(rows [][]string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	var target io.Writer = f
	var gz *gzip.Writer
	if w.gzip {
		// Each batch becomes its own gzip member; concatenated members
		// decode as one stream.
		gz = gzip.NewWriter(f)
		target = gz
	}
	out := io.MultiWriter(target, w.hasher)

	if !w.wroteBOM {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			f.Close()
			return fmt.Errorf("write output: %w", err)
		}
		w.wroteBOM = true
	}

	cw := csv.NewWriter(out)
	cw.Comma = w.delim
	werr := cw.WriteAll(rows) // WriteAll flushes

	if gz != nil {
		if err := gz.Close(); err != nil && werr == nil {
			werr = err
		}
	}
	if err := f.Close(); err != nil && werr == nil {
		werr = err
	}
	if werr != nil {
		return fmt.Errorf("write output: %w", werr)
	}
	return nil
}
