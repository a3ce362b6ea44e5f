package mask

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// tokenPrefix prefixes every synthetic token; the sequence number is
// zero-padded to seven digits.
const tokenPrefix = "TKN_"

// TokenRegistry is a session-lifetime mapping from raw value to a stable
// synthetic token. It is injective — distinct raw values get distinct
// tokens — and monotonic: sequence numbers are assigned in first-seen order
// and entries are never removed or renumbered. Re-masking a value within the
// same session always yields the same token.
//
// The registry is safe for concurrent use. Within a single streaming run
// there is only one writer, but the same registry may be shared across
// overlapping sessions, so mutation is serialized.
type TokenRegistry struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewTokenRegistry returns an empty registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{tokens: make(map[string]string)}
}

// Token returns the stable token for raw, assigning the next sequence number
// on first sight. The empty string is never tokenized and maps to itself.
func (r *TokenRegistry) Token(raw string) string {
	if raw == "" {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.tokens[raw]; ok {
		return tok
	}
	tok := fmt.Sprintf("%s%07d", tokenPrefix, len(r.tokens)+1)
	r.tokens[raw] = tok
	return tok
}

// Len returns the number of registered values.
func (r *TokenRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// ImportJSON merges an external token map (a JSON object of raw value to
// token) into the registry. Imported entries take precedence on key
// collision. Subsequent sequence numbers continue from the merged size.
func (r *TokenRegistry) ImportJSON(rd io.Reader) error {
	var m map[string]string
	if err := json.NewDecoder(rd).Decode(&m); err != nil {
		return fmt.Errorf("decode token map: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range m {
		r.tokens[k] = v
	}
	return nil
}

// ExportJSON writes the registry as indented JSON with keys in sorted order
// (encoding/json sorts map keys), suitable for re-import in a later session.
func (r *TokenRegistry) ExportJSON(w io.Writer) error {
	r.mu.Lock()
	snapshot := make(map[string]string, len(r.tokens))
	for k, v := range r.tokens {
		snapshot[k] = v
	}
	r.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
