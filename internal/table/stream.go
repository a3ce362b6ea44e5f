package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// RowReader reads a delimited file sequentially in caller-sized batches.
// It is not safe for concurrent use; the streaming pipeline is single-reader
// by design.
type RowReader struct {
	cr      *csvReader
	columns []string
	closer  func() error
	line    int // 1-based line of the last record returned
}

// OpenStream opens path for sequential batched reading.
//
// Behavior:
//   - Returns ErrUnsupported for Excel paths; callers must use Read instead
//     (Excel has no incremental reader).
//   - Gzip-compressed input is decompressed on the fly.
//   - When opts.HasHeader is true the header row is consumed immediately and
//     exposed via Columns (BOM stripped from the first cell by the decoder).
//     Otherwise Columns is synthesized from the width of the first data row,
//     which is buffered and returned by the first ReadBatch.
func OpenStream(ctx context.Context, path string, opts ReadOptions) (*RowReader, error) {
	format := DetectFormat(path)
	if !format.Streamable() {
		return nil, fmt.Errorf("%w: %s cannot be streamed", ErrUnsupported, path)
	}

	rc, err := NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	raw, closeAll, err := wrapCompressed(rc, format)
	if err != nil {
		return nil, err
	}

	cr := newCSVReader(decodeReader(raw), format.Delimiter(), opts.LazyQuotes)
	rr := &RowReader{cr: &csvReader{r: cr}, closer: closeAll}

	if opts.HasHeader {
		header, err := cr.Read()
		if err == io.EOF {
			return rr, nil // empty file: no columns, no rows
		}
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("read header: %w", err)
		}
		rr.line = 1
		rr.columns = header
		return rr, nil
	}

	first, err := cr.Read()
	if err == io.EOF {
		return rr, nil
	}
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("read first row: %w", err)
	}
	rr.columns = syntheticColumns(len(first))
	rr.cr.pending = first
	return rr, nil
}

// Columns returns the column names (header or synthesized). Empty for an
// empty input file.
func (r *RowReader) Columns() []string { return r.columns }

// Line returns the 1-based input line number of the most recently returned
// record, for error reporting.
func (r *RowReader) Line() int { return r.line }

// ReadBatch returns up to n rows. It returns io.EOF (possibly alongside a
// final short batch) when the input is exhausted. Parse errors are fatal for
// the batch: streaming masking cannot silently drop rows without breaking
// the input-order/output-order equivalence.
func (r *RowReader) ReadBatch(ctx context.Context, n int) ([][]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows := make([][]string, 0, n)
	for len(rows) < n {
		select {
		case <-ctx.Done():
			return rows, ctx.Err()
		default:
		}

		rec, err := r.cr.next()
		if err == io.EOF {
			return rows, io.EOF
		}
		r.line++
		if err != nil {
			return rows, fmt.Errorf("parse line %d: %w", r.line, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// Close releases the underlying file (and gzip reader when present).
func (r *RowReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// csvReader wraps encoding/csv with a one-record pushback buffer, used when
// the first row doubles as the width sample for headerless input.
type csvReader struct {
	r       *csv.Reader
	pending []string
}

func (c *csvReader) next() ([]string, error) {
	if c.pending != nil {
		rec := c.pending
		c.pending = nil
		return rec, nil
	}
	return c.r.Read()
}
