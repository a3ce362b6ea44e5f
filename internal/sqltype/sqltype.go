// Package sqltype normalizes free-form column type declarations — as found in
// table-design spreadsheets, in Japanese or English, optionally sized — into
// target SQL type strings for the generated dbt model.
//
// The functions here are pure and deterministic, which makes them
// straightforward to test and reuse. Normalize never fails: unmatched or
// blank declarations fall back to a default varchar.
package sqltype

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultType is returned for blank or unrecognized declarations.
const DefaultType = "varchar(100)"

// sizedDecl matches declarations of the form LETTERS(DIGITS), e.g.
// "VARCHAR(100)" or "NUMBER(3)". Matching is anchored at the start only, so
// trailing qualifiers ("VARCHAR(20) NOT NULL") still resolve by base type.
var sizedDecl = regexp.MustCompile(`^([A-Z]+)\((\d+)\)`)

// keywordTable maps declaration keywords (Japanese and English synonyms) to
// target types. Order is significant: entries are tested top to bottom and
// the first hit wins. Combined with bidirectional containment, earlier
// entries claim inputs that also carry a later keyword: DATE claims the
// input DATETIME, and the DATETIME entry claims the input TIME. Reordering
// the table changes results; keep it as-is.
var keywordTable = []struct {
	keyword string
	sqlType string
}{
	{"文字列", "varchar(100)"},
	{"VARCHAR", "varchar(100)"},
	{"CHAR", "varchar(100)"},
	{"TEXT", "varchar(100)"},
	{"数値", "number"},
	{"NUMBER", "number"},
	{"INT", "number"},
	{"INTEGER", "number"},
	{"DECIMAL", "number"},
	{"NUMERIC", "number"},
	{"FLOAT", "float"},
	{"DOUBLE", "double"},
	{"日付", "date"},
	{"DATE", "date"},
	{"日時", "timestamp"},
	{"DATETIME", "timestamp"},
	{"TIMESTAMP", "timestamp"},
	{"時刻", "time"},
	{"TIME", "time"},
	{"BOOLEAN", "boolean"},
	{"BOOL", "boolean"},
}

// Normalize maps a declared type string to its target SQL type.
//
// Resolution order:
//
//  1. Blank input returns DefaultType.
//
//  2. A sized declaration LETTERS(DIGITS) (case-insensitive) resolves by
//     base type: VARCHAR/CHAR keep the declared size as varchar(n);
//     NUMBER/DECIMAL/NUMERIC keep it as number(n).
//
//  3. Otherwise the uppercased, trimmed input is tested against the keyword
//     table. Containment is bidirectional — the entry matches when the
//     keyword contains the input or the input contains the keyword — so both
//     abbreviated ("VAR") and qualified ("SMALLINT") declarations resolve.
//
//  4. Anything else returns DefaultType.
func Normalize(declared string) string {
	upper := strings.ToUpper(strings.TrimSpace(declared))
	if upper == "" {
		return DefaultType
	}

	if m := sizedDecl.FindStringSubmatch(upper); m != nil {
		base, size := m[1], m[2]
		switch base {
		case "VARCHAR", "CHAR":
			return fmt.Sprintf("varchar(%s)", size)
		case "NUMBER", "DECIMAL", "NUMERIC":
			return fmt.Sprintf("number(%s)", size)
		}
	}

	for _, e := range keywordTable {
		if strings.Contains(upper, e.keyword) || strings.Contains(e.keyword, upper) {
			return e.sqlType
		}
	}

	return DefaultType
}

// nullifMarkers are the normalized-type fragments that require empty-string
// to NULL conversion when loading from the raw external stage. Loading '' into
// these types fails, so the extraction stage wraps them in nullif.
var nullifMarkers = []string{"number", "int", "decimal", "float", "double", "date", "timestamp"}

// NeedsNullIf reports whether the given normalized SQL type must be loaded
// through nullif(value, '') in the extraction stage.
func NeedsNullIf(sqlType string) bool {
	lower := strings.ToLower(sqlType)
	for _, m := range nullifMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
