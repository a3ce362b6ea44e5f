package dbtgen

import (
	"fmt"
	"strings"

	"tablekit/internal/sqltype"
	"tablekit/internal/table"
)

// Options configures one generation run.
type Options struct {
	// SourceSchema and SourceTable parameterize the dbt source() reference
	// that names the raw external table.
	SourceSchema string
	SourceTable  string

	// ModelName names the generated model; it heads the schema fragment.
	ModelName string

	// ModelDescription is the free-text model description for the schema
	// fragment. Newlines are collapsed and quotes escaped; when empty a
	// default description derived from ModelName is used.
	ModelDescription string

	// IncludeComments enables schema-fragment generation (still subject to a
	// logical-name or description role being designated).
	IncludeComments bool

	// InclusionMask selects design rows by original row order. nil selects
	// all rows. A shorter mask is false-padded to the row count; a longer
	// one is truncated. The mask is applied before any other filtering so
	// it can never misalign.
	InclusionMask []bool
}

// Result carries the generated artifacts.
type Result struct {
	// SQL is the two-stage dbt model SQL.
	SQL string

	// SchemaYAML is the models.yml fragment, or "" when schema generation
	// was disabled or produced no column entries.
	SchemaYAML string

	// ColumnCount is the number of design rows that produced output columns.
	ColumnCount int
}

// column is one retained design row with its assigned slot and normalized
// type. Slots are 1-based and contiguous in input order.
type column struct {
	slot    int
	name    string
	sqlType string
	logical string
	desc    string
}

// Generate produces the dbt model SQL and, when enabled, the models.yml
// fragment from a design table.
//
// Behavior:
//   - The physical-name and type roles must be designated and present in the
//     table; otherwise ErrMissingRole is returned.
//   - Rows are selected by the inclusion mask against original row order,
//     then rows with a blank physical name are skipped (a data defect in the
//     design document, not an error).
//   - Duplicate physical names are not deduplicated; each retained row
//     produces its own output column and slot.
func Generate(t *table.Table, roles Roles, opts Options) (Result, error) {
	cols, err := selectColumns(t, roles, opts.InclusionMask)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SQL:         renderSQL(cols, opts.SourceSchema, opts.SourceTable),
		ColumnCount: len(cols),
	}
	if opts.IncludeComments && (roles.Logical != "" || roles.Desc != "") {
		res.SchemaYAML = renderSchemaDoc(cols, opts.ModelName, opts.ModelDescription)
	}
	return res, nil
}

// selectColumns applies the inclusion mask and blank-name filter, assigning
// slots to the survivors in input order.
func selectColumns(t *table.Table, roles Roles, mask []bool) ([]column, error) {
	if roles.Physical == "" || roles.Type == "" {
		return nil, ErrMissingRole
	}
	physIdx := t.ColumnIndex(roles.Physical)
	typeIdx := t.ColumnIndex(roles.Type)
	if physIdx < 0 {
		return nil, fmt.Errorf("%w: column %q not found", ErrMissingRole, roles.Physical)
	}
	if typeIdx < 0 {
		return nil, fmt.Errorf("%w: column %q not found", ErrMissingRole, roles.Type)
	}
	logIdx, descIdx := -1, -1
	if roles.Logical != "" {
		logIdx = t.ColumnIndex(roles.Logical)
	}
	if roles.Desc != "" {
		descIdx = t.ColumnIndex(roles.Desc)
	}

	var cols []column
	slot := 1
	for i := range t.Rows {
		if mask != nil && (i >= len(mask) || !mask[i]) {
			continue
		}
		name := strings.TrimSpace(t.Cell(i, physIdx))
		if name == "" {
			continue // blank physical name: skip the row, keep going
		}
		c := column{
			slot:    slot,
			name:    name,
			sqlType: sqltype.Normalize(t.Cell(i, typeIdx)),
		}
		if logIdx >= 0 {
			c.logical = strings.TrimSpace(t.Cell(i, logIdx))
		}
		if descIdx >= 0 {
			c.desc = strings.TrimSpace(t.Cell(i, descIdx))
		}
		cols = append(cols, c)
		slot++
	}
	return cols, nil
}

// renderSQL emits the two-stage model:
//
//   - source_data: one expression per column pulling the positional value
//     accessor value:c<slot> from the external stage, cast to the normalized
//     type. Numeric and temporal casts go through nullif(value, '') because
//     an empty string fails those casts at load time.
//
//   - final select: a direct column reference per column, except
//     gender-coded columns which get a 4-way case expression normalizing
//     null/男/女/other to 0/1/2/9.
func renderSQL(cols []column, sourceSchema, sourceTable string) string {
	var b strings.Builder

	b.WriteString("with\n")
	b.WriteString("    -- 取り込みエラー回避のための最低限の処理を行う　※''がエラーとなる型で取り込む場合は、nullに変換する\n")
	b.WriteString("    source_data as (\n")
	b.WriteString("        select\n")

	exprs := make([]string, 0, len(cols))
	for _, c := range cols {
		if sqltype.NeedsNullIf(c.sqlType) {
			exprs = append(exprs, fmt.Sprintf("            nullif(value:c%d, '')::%s as %s", c.slot, c.sqlType, c.name))
		} else {
			exprs = append(exprs, fmt.Sprintf("            value:c%d::%s as %s", c.slot, c.sqlType, c.name))
		}
	}
	b.WriteString(strings.Join(exprs, ",\n"))

	b.WriteString("\n")
	fmt.Fprintf(&b, "        from {{ source(\"%s\", \"%s\") }}\n", sourceSchema, sourceTable)
	b.WriteString("    )\n")
	b.WriteString("\n")
	b.WriteString("-- 重複レコードや欠損値、揺らぎの矯正、コード体系の統一等を行う\n")
	b.WriteString("select\n")

	selects := make([]string, 0, len(cols))
	for _, c := range cols {
		if isGenderColumn(c.name) {
			selects = append(selects, genderCase(c.name))
		} else {
			selects = append(selects, "    "+c.name)
		}
	}
	b.WriteString(strings.Join(selects, ",\n"))
	b.WriteString("\nfrom source_data")

	return b.String()
}

// isGenderColumn reports whether a physical name denotes a gender code:
// case-insensitive "gender" substring, or the Japanese 性別.
func isGenderColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "gender") || strings.Contains(name, "性別")
}

// genderCase renders the code-normalizing case expression for a gender
// column: null -> 0, 男 -> 1, 女 -> 2, anything else -> 9.
func genderCase(name string) string {
	var b strings.Builder
	b.WriteString("    case\n")
	fmt.Fprintf(&b, "        when %s is null\n", name)
	b.WriteString("        then 0\n")
	fmt.Fprintf(&b, "        when %s = '男'\n", name)
	b.WriteString("        then 1\n")
	fmt.Fprintf(&b, "        when %s = '女'\n", name)
	b.WriteString("        then 2\n")
	b.WriteString("        else 9\n")
	fmt.Fprintf(&b, "    end as %s", name)
	return b.String()
}
