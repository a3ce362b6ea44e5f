package table

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"data/customers.csv", FormatCSV},
		{"data/customers.CSV", FormatCSV},
		{"data/customers.tsv", FormatTSV},
		{"data/customers.csv.gz", FormatCSVGzip},
		{"data/customers.tsv.gz", FormatTSVGzip},
		{"design.xlsx", FormatExcel},
		{"design.XLS", FormatExcel},
		{"no_extension", FormatCSV}, // comma-delimited is the fallback
		{"archive.gz", FormatCSVGzip},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v; want %v", tt.path, got, tt.want)
		}
	}
}

func TestFormatProperties(t *testing.T) {
	if FormatExcel.Streamable() {
		t.Error("excel must not be streamable")
	}
	if !FormatCSVGzip.Streamable() || !FormatTSV.Streamable() {
		t.Error("delimited formats must be streamable")
	}
	if !FormatCSVGzip.Compressed() || FormatCSV.Compressed() {
		t.Error("compression flags wrong")
	}
	if FormatTSV.Delimiter() != '\t' || FormatTSVGzip.Delimiter() != '\t' {
		t.Error("tsv delimiter wrong")
	}
	if FormatCSV.Delimiter() != ',' {
		t.Error("csv delimiter wrong")
	}
}

func TestTableCell(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2"},
			{"3"}, // ragged
		},
	}
	if got := tbl.Cell(0, 1); got != "2" {
		t.Fatalf("Cell(0,1) = %q", got)
	}
	// Out-of-range access is a blank cell, not a panic.
	if got := tbl.Cell(1, 1); got != "" {
		t.Fatalf("Cell(1,1) = %q; want empty", got)
	}
	if got := tbl.Cell(-1, 0); got != "" {
		t.Fatalf("Cell(-1,0) = %q; want empty", got)
	}
	if got := tbl.Cell(9, 0); got != "" {
		t.Fatalf("Cell(9,0) = %q; want empty", got)
	}

	if got := tbl.ColumnIndex("b"); got != 1 {
		t.Fatalf("ColumnIndex(b) = %d", got)
	}
	if got := tbl.ColumnIndex("zzz"); got != -1 {
		t.Fatalf("ColumnIndex(zzz) = %d; want -1", got)
	}
}
