package sqltype

import "testing"

// TestNormalize_Sized verifies that LETTERS(DIGITS) declarations keep their
// declared size for the supported base types.
func TestNormalize_Sized(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"VARCHAR(10)", "varchar(10)"},
		{"varchar(10)", "varchar(10)"},
		{"CHAR(5)", "varchar(5)"},
		{"NUMBER(3)", "number(3)"},
		{"DECIMAL(12)", "number(12)"},
		{"NUMERIC(8)", "number(8)"},
		{"  VARCHAR(20)  ", "varchar(20)"},
		// Trailing qualifiers do not defeat the sized match.
		{"VARCHAR(20) NOT NULL", "varchar(20)"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

// TestNormalize_Keywords covers the ordered keyword table, including Japanese
// synonyms and bidirectional substring containment.
func TestNormalize_Keywords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"文字列", "varchar(100)"},
		{"TEXT", "varchar(100)"},
		{"数値", "number"},
		{"INT", "number"},
		{"INTEGER", "number"},
		{"SMALLINT", "number"}, // input contains keyword INT
		{"VAR", "varchar(100)"}, // keyword VARCHAR contains input
		{"FLOAT", "float"},
		{"DOUBLE", "double"},
		{"日付", "date"},
		{"date", "date"},
		{"日時", "timestamp"},
		{"TIMESTAMP", "timestamp"},
		{"時刻", "time"},
		// Bidirectional containment lets earlier entries claim inputs that
		// carry a later keyword: DATE claims DATETIME, DATETIME claims bare
		// TIME. Only 日時 and 時刻 reach the timestamp and time entries
		// directly. The table order carries these quirks on purpose.
		{"DATETIME", "date"},
		{"TIME", "timestamp"},
		{"BOOLEAN", "boolean"},
		{"bool", "boolean"},
		// Unsized INT with parens that do not match the sized pattern still
		// resolves through the keyword table.
		{"INT(11)", "number"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

// TestNormalize_Fallback verifies the varchar(100) default for blank and
// unmatched declarations.
func TestNormalize_Fallback(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "不明", "GEOMETRY"} {
		if got := Normalize(in); got != DefaultType {
			t.Errorf("Normalize(%q) = %q; want %q", in, got, DefaultType)
		}
	}
}

// TestNeedsNullIf checks the numeric/temporal marker set used by the
// extraction stage.
func TestNeedsNullIf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{"number", true},
		{"number(3)", true},
		{"float", true},
		{"double", true},
		{"date", true},
		{"timestamp", true},
		{"varchar(100)", false},
		{"boolean", false},
		{"time", false},
	}
	for _, c := range cases {
		if got := NeedsNullIf(c.in); got != c.want {
			t.Errorf("NeedsNullIf(%q) = %v; want %v", c.in, got, c.want)
		}
	}
}
