package table

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupported is returned when a reader is asked to handle a file whose
// suffix does not identify a supported format for that operation.
var ErrUnsupported = errors.New("table: unsupported file extension")

// ReadOptions configures the readers in this package.
type ReadOptions struct {
	// Sheet selects the Excel worksheet by name. Empty means the first sheet.
	// Ignored for delimited formats.
	Sheet string

	// HasHeader treats the first row as column names. When false, columns are
	// named col_0..col_n-1 from the width of the first row.
	HasHeader bool

	// LazyQuotes relaxes quote handling for delimited input, tolerating bare
	// quotes inside fields the way real-world exports sometimes require.
	LazyQuotes bool
}

// Read loads the whole file at path into a Table. The format is inferred from
// the filename suffix (see DetectFormat). All cells are text.
func Read(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	return readLimited(ctx, path, opts, -1)
}

// ReadPreview loads at most nrows data rows. For delimited formats the file
// is read incrementally and abandoned after nrows; Excel has no partial
// reader, so the whole sheet is loaded and truncated.
func ReadPreview(ctx context.Context, path string, opts ReadOptions, nrows int) (*Table, error) {
	if nrows < 0 {
		nrows = 0
	}
	return readLimited(ctx, path, opts, nrows)
}

// readLimited implements Read and ReadPreview. limit < 0 means "all rows".
func readLimited(ctx context.Context, path string, opts ReadOptions, limit int) (*Table, error) {
	if DetectFormat(path) == FormatExcel {
		t, err := readExcel(path, opts)
		if err != nil {
			return nil, err
		}
		if limit >= 0 && len(t.Rows) > limit {
			t.Rows = t.Rows[:limit]
		}
		return t, nil
	}

	rr, err := OpenStream(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer rr.Close()

	t := &Table{Columns: rr.Columns()}
	for limit < 0 || len(t.Rows) < limit {
		n := 1024
		if limit >= 0 && limit-len(t.Rows) < n {
			n = limit - len(t.Rows)
		}
		batch, err := rr.ReadBatch(ctx, n)
		t.Rows = append(t.Rows, batch...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// readExcel loads a worksheet into a Table. Rows from excelize are ragged;
// they are kept as-is and consumers index defensively.
func readExcel(path string, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	if opts.HasHeader {
		return &Table{Columns: rows[0], Rows: rows[1:]}, nil
	}
	return &Table{Columns: syntheticColumns(len(rows[0])), Rows: rows}, nil
}

// SheetNames lists the worksheets of an Excel file in workbook order.
func SheetNames(path string) ([]string, error) {
	if DetectFormat(path) != FormatExcel {
		return nil, fmt.Errorf("%w: %s is not an Excel file", ErrUnsupported, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel %s: %w", path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// newCSVReader builds the lenient csv.Reader used for all delimited input.
// Width is not enforced and fields are never trimmed: masking must pass
// non-target data through byte-for-byte.
func newCSVReader(r io.Reader, delim rune, lazy bool) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazy
	return cr
}

// wrapCompressed layers gzip decompression over rc when the format requires
// it, returning the reader to parse and a close function covering both.
func wrapCompressed(rc io.ReadCloser, f Format) (io.Reader, func() error, error) {
	if !f.Compressed() {
		return rc, rc.Close, nil
	}
	gz, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("gzip: %w", err)
	}
	closeAll := func() error {
		gzErr := gz.Close()
		if err := rc.Close(); err != nil {
			return err
		}
		return gzErr
	}
	return gz, closeAll, nil
}
