// Package table loads delimited (CSV/TSV, optionally gzip-compressed) and
// Excel files into a simple in-memory model, and exposes a streaming row
// reader for bounded-memory processing of large delimited files.
//
// Design goals:
//   - All fields are read as text; no type coercion happens at read time so
//     downstream transforms see values exactly as written.
//   - Format selection is driven by the filename suffix and modeled
//     explicitly: a Format either supports streaming (delimited files) or
//     requires a whole-file load (Excel).
//   - Input encoding is detected best-effort: UTF-8 (with or without BOM)
//     first, falling back to CP932 (Shift-JIS) for legacy exports.
package table

import (
	"fmt"
	"strings"
)

// Table is an in-memory tabular value: a header and rows of text cells.
// Rows may be ragged; consumers index defensively by column position.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the text value at (row, col), or "" when the row is too short.
// Out-of-range access maps to the empty string by design: blank and missing
// cells are equivalent everywhere in this module.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Format identifies the physical file format inferred from a filename suffix.
type Format int

const (
	FormatCSV Format = iota
	FormatTSV
	FormatCSVGzip
	FormatTSVGzip
	FormatExcel
)

// DetectFormat infers the Format from the path suffix. The rules mirror the
// output-naming rules in the streaming writer:
//
//   - .xlsx / .xls        -> FormatExcel
//   - .tsv / .tsv.gz      -> tab-delimited (plain / gzip)
//   - .gz (any other)     -> comma-delimited gzip
//   - anything else       -> comma-delimited plain
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return FormatExcel
	case strings.HasSuffix(lower, ".tsv.gz"):
		return FormatTSVGzip
	case strings.HasSuffix(lower, ".gz"):
		return FormatCSVGzip
	case strings.HasSuffix(lower, ".tsv"):
		return FormatTSV
	default:
		return FormatCSV
	}
}

// Streamable reports whether the format supports sequential batched reading.
// Excel has no incremental row reader here and must be loaded whole.
func (f Format) Streamable() bool { return f != FormatExcel }

// Compressed reports whether the format is gzip-compressed.
func (f Format) Compressed() bool { return f == FormatCSVGzip || f == FormatTSVGzip }

// Delimiter returns the field delimiter for delimited formats. Excel has no
// delimiter; the CSV default is returned for symmetry.
func (f Format) Delimiter() rune {
	if f == FormatTSV || f == FormatTSVGzip {
		return '\t'
	}
	return ','
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatCSVGzip:
		return "csv.gz"
	case FormatTSVGzip:
		return "tsv.gz"
	case FormatExcel:
		return "excel"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// syntheticColumns names headerless columns col_0..col_n-1, matching the
// naming used for width-constrained headerless streams.
func syntheticColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("col_%d", i)
	}
	return cols
}
