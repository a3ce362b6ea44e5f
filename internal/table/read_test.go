package table

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook builds a two-sheet fixture: the default sheet holds junk and
// a "design" sheet holds the real table, so sheet selection is observable.
func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"junk"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("design"); err != nil {
		t.Fatal(err)
	}
	rows := [][]any{
		{"物理名", "データ型", "論理名"},
		{"user_id", "VARCHAR(26)", "ユーザID"},
		{"age", "数値", "年齢"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("design", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "design.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestRead_ExcelSheetSelection(t *testing.T) {
	path := writeWorkbook(t)
	ctx := context.Background()

	tbl, err := Read(ctx, path, ReadOptions{Sheet: "design", HasHeader: true})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"物理名", "データ型", "論理名"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[1][0] != "age" {
		t.Fatalf("rows = %v", tbl.Rows)
	}

	// Default sheet is the workbook's first.
	tbl, err = Read(ctx, path, ReadOptions{HasHeader: true})
	if err != nil {
		t.Fatalf("Read default sheet: %v", err)
	}
	if len(tbl.Columns) == 0 || tbl.Columns[0] != "junk" {
		t.Fatalf("default sheet columns = %v", tbl.Columns)
	}
}

func TestRead_ExcelHeaderless(t *testing.T) {
	path := writeWorkbook(t)

	tbl, err := Read(context.Background(), path, ReadOptions{Sheet: "design"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"col_0", "col_1", "col_2"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %d; want 3 (header row stays data)", len(tbl.Rows))
	}
}

func TestReadPreview_ExcelTruncates(t *testing.T) {
	path := writeWorkbook(t)

	tbl, err := ReadPreview(context.Background(), path, ReadOptions{Sheet: "design", HasHeader: true}, 1)
	if err != nil {
		t.Fatalf("ReadPreview: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d; want 1", len(tbl.Rows))
	}
}

func TestSheetNames(t *testing.T) {
	path := writeWorkbook(t)

	names, err := SheetNames(path)
	if err != nil {
		t.Fatalf("SheetNames: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Sheet1", "design"}) {
		t.Fatalf("sheets = %v", names)
	}

	if _, err := SheetNames("data.csv"); err == nil {
		t.Fatal("expected error for a non-Excel path")
	}
}
