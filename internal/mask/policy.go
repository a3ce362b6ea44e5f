package mask

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// Configuration errors surfaced when a Policy is compiled or decoded.
var (
	ErrUnknownMethod  = errors.New("mask: unknown masking method")
	ErrMissingPattern = errors.New("mask: regex method requires a pattern")
	ErrBadPattern     = errors.New("mask: invalid regex pattern")
	ErrMissingPreset  = errors.New("mask: preset method requires a preset")
)

// Policy is the full parameter set governing one masking invocation. Given an
// input table it fully determines the output; the only hidden state is the
// TokenRegistry when Method is MethodTokenize.
//
// The JSON field names are the exported policy-record format and must not
// change.
type Policy struct {
	Columns  []string `json:"target_columns"`
	Method   Method   `json:"method"`
	HeadKeep int      `json:"head_keep"`
	TailKeep int      `json:"tail_keep"`
	Salt     string   `json:"salt"`
	Pattern  string   `json:"regex_pattern"`
	Preset   Preset   `json:"preset"`
}

// Validate checks the parameter combinations that cannot be expressed in the
// type system: the regex method needs a compilable pattern and the preset
// method needs a concrete preset.
func (p Policy) Validate() error {
	switch p.Method {
	case MethodFull, MethodHash, MethodTokenize:
		return nil
	case MethodPartial:
		if p.HeadKeep < 0 || p.TailKeep < 0 {
			return fmt.Errorf("mask: negative keep counts (head=%d tail=%d)", p.HeadKeep, p.TailKeep)
		}
		return nil
	case MethodRegex:
		if p.Pattern == "" {
			return ErrMissingPattern
		}
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPattern, err)
		}
		return nil
	case MethodPreset:
		if p.Preset == PresetNone {
			return ErrMissingPreset
		}
		return nil
	default:
		return fmt.Errorf("%w: method(%d)", ErrUnknownMethod, int(p.Method))
	}
}

// WriteJSON writes the policy record as indented JSON, the audit format
// offered for download alongside masked output.
func (p Policy) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
