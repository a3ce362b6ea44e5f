// Package dbtgen turns a table-design document into a dbt model: a two-stage
// SQL template that loads a Snowflake external stage into a cleaned
// selection, plus an optional models.yml schema fragment documenting each
// column.
//
// The generators are pure text producers: they take an in-memory design
// table and configuration, and return strings. Errors surface to the caller;
// nothing is written or logged here.
package dbtgen

import (
	"errors"
	"strings"
)

// Roles names the design-document columns that carry each field of a design
// row. Physical and Type are required; Logical and Desc are optional and
// only feed schema-doc generation.
type Roles struct {
	Physical string
	Type     string
	Logical  string
	Desc     string
}

// ErrMissingRole is returned when the physical-name or type role column is
// not designated or not present in the design table.
var ErrMissingRole = errors.New("dbtgen: physical-name and type role columns are required")

// Role keyword lists for auto-detection, lowercased. A design-doc header
// matches a role when it contains any of the role's keywords.
var (
	physicalKeywords = []string{"物理名", "物理", "カラム名", "physical", "column_name", "field"}
	typeKeywords     = []string{"データ型", "データタイプ", "型", "type", "datatype"}
	logicalKeywords  = []string{"論理名", "項目名", "項目", "logical", "item", "name"}
	descKeywords     = []string{"説明", "備考", "コメント", "description", "comment", "remarks", "note"}
)

// DetectRoles scans the design-document headers and maps them to roles by
// keyword containment. Each header is claimed by at most one role, tested in
// the order physical, type, logical, description; when several headers match
// the same role the last one wins. Undetected roles stay empty.
func DetectRoles(headers []string) Roles {
	var r Roles
	for _, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch {
		case containsAny(lower, physicalKeywords):
			r.Physical = h
		case containsAny(lower, typeKeywords):
			r.Type = h
		case containsAny(lower, logicalKeywords):
			r.Logical = h
		case containsAny(lower, descKeywords):
			r.Desc = h
		}
	}
	return r
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
