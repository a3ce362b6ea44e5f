package mask

import (
	"fmt"
	"regexp"

	"tablekit/internal/table"
)

// Masker applies one compiled Policy to tables and row batches. The cell
// transform is resolved once at construction — the per-row hot path does no
// method dispatch, mirroring how the coercion plan is precompiled in the
// streaming transformer this package replaces.
type Masker struct {
	policy Policy
	cell   func(string) string
}

// NewMasker validates the policy and compiles its cell transform. All
// configuration errors (unknown method, missing or invalid regex pattern,
// missing preset) surface here, before any data is touched.
func NewMasker(p Policy, reg *TokenRegistry) (*Masker, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var cell func(string) string
	switch p.Method {
	case MethodFull:
		cell = Full
	case MethodPartial:
		head, tail := p.HeadKeep, p.TailKeep
		cell = func(s string) string { return KeepHeadTail(s, head, tail) }
	case MethodHash:
		salt := p.Salt
		cell = func(s string) string { return Hash(s, salt) }
	case MethodTokenize:
		if reg == nil {
			reg = NewTokenRegistry()
		}
		cell = reg.Token
	case MethodRegex:
		re := regexp.MustCompile(p.Pattern) // compilability checked by Validate
		cell = func(s string) string { return RegexMask(re, s) }
	case MethodPreset:
		cell = presetFunc(p.Preset)
	default:
		return nil, fmt.Errorf("%w: method(%d)", ErrUnknownMethod, int(p.Method))
	}

	return &Masker{policy: p, cell: cell}, nil
}

// Policy returns the compiled policy.
func (m *Masker) Policy() Policy { return m.policy }

// Cell applies the compiled transform to a single value.
func (m *Masker) Cell(s string) string { return m.cell(s) }

// Apply masks the target columns of t in place. Non-target columns pass
// through unchanged; target columns named in the policy but absent from the
// table are skipped. Cells beyond a ragged row's width are treated as blank
// and left alone.
func (m *Masker) Apply(t *table.Table) {
	m.MaskRows(t.Columns, t.Rows)
}

// MaskRows masks one batch of rows in place, given the column names the rows
// are aligned to. The streaming writer calls this per batch; token state in
// the registry accumulates across calls.
func (m *Masker) MaskRows(columns []string, rows [][]string) {
	idx := m.targetIndexes(columns)
	if len(idx) == 0 {
		return
	}
	for _, row := range rows {
		for _, i := range idx {
			if i < len(row) {
				row[i] = m.cell(row[i])
			}
		}
	}
}

// targetIndexes resolves the policy's target column names against a header.
// Missing names are dropped silently, matching the pass-through contract.
func (m *Masker) targetIndexes(columns []string) []int {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}
	idx := make([]int, 0, len(m.policy.Columns))
	for _, c := range m.policy.Columns {
		if i, ok := pos[c]; ok {
			idx = append(idx, i)
		}
	}
	return idx
}
