// Package mask implements column-level masking of tabular text data: full
// redaction, partial (keep head/tail) masking, salted SHA-256 hashing, stable
// tokenization, regex-match masking, and format presets for emails, phone
// numbers, and credit cards.
//
// Design goals:
//   - Methods are a closed, tagged set (Method / Preset); dispatch is
//     exhaustive and unknown names are rejected when a Policy is compiled,
//     not at row time.
//   - Every transform treats cells as text. The empty string is a fixed
//     point of all methods: missing and blank values stay blank.
//   - The only mutable state is the TokenRegistry, passed in explicitly by
//     the caller.
package mask

import (
	"encoding/json"
	"fmt"
)

// Method selects a masking transform.
type Method int

const (
	// MethodFull replaces any non-empty value with "****".
	MethodFull Method = iota
	// MethodPartial keeps the first HeadKeep and last TailKeep characters
	// and masks the middle with '*'.
	MethodPartial
	// MethodHash replaces the value with hex(SHA-256(salt + value)).
	MethodHash
	// MethodTokenize replaces the value with a stable synthetic token from
	// the TokenRegistry.
	MethodTokenize
	// MethodRegex masks every match of a caller-supplied pattern with '*'
	// of equal length.
	MethodRegex
	// MethodPreset applies one of the built-in format presets.
	MethodPreset
)

var methodNames = map[Method]string{
	MethodFull:     "full",
	MethodPartial:  "partial",
	MethodHash:     "hash",
	MethodTokenize: "tokenize",
	MethodRegex:    "regex",
	MethodPreset:   "preset",
}

// ParseMethod resolves a method name. Unknown names are a configuration
// error per the dispatch contract.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: method %q", ErrUnknownMethod, s)
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// MarshalJSON encodes the method as its string name.
func (m Method) MarshalJSON() ([]byte, error) {
	s, ok := methodNames[m]
	if !ok {
		return nil, fmt.Errorf("%w: method(%d)", ErrUnknownMethod, int(m))
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes a method from its string name.
func (m *Method) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Preset selects a built-in format mask for MethodPreset.
type Preset int

const (
	// PresetNone means no preset is selected; invalid with MethodPreset.
	PresetNone Preset = iota
	// PresetEmail keeps the local part and masks every domain character.
	PresetEmail
	// PresetPhone masks the middle group of a 3-group phone number.
	PresetPhone
	// PresetCreditCard strips non-digits and masks all but the last four.
	PresetCreditCard
)

var presetNames = map[Preset]string{
	PresetNone:       "none",
	PresetEmail:      "email",
	PresetPhone:      "phone",
	PresetCreditCard: "credit_card",
}

// ParsePreset resolves a preset name. The empty string means PresetNone.
func ParsePreset(s string) (Preset, error) {
	if s == "" {
		return PresetNone, nil
	}
	for p, name := range presetNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: preset %q", ErrUnknownMethod, s)
}

func (p Preset) String() string {
	if s, ok := presetNames[p]; ok {
		return s
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// MarshalJSON encodes the preset as its string name ("none" when unset).
func (p Preset) MarshalJSON() ([]byte, error) {
	s, ok := presetNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: preset(%d)", ErrUnknownMethod, int(p))
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes a preset from its string name; "" and null mean none.
func (p *Preset) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = PresetNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParsePreset(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
