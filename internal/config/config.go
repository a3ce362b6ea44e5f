// Package config defines the canonical, JSON-serializable configuration model
// for masking jobs. It is intentionally small, explicit, and dependency-free
// so that jobs can be loaded from disk (or other sources) and passed through
// the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in job files.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":    "customers-prod",
//	  "input":  { "path": "data/customers.csv.gz", "has_header": true },
//	  "policy": { "target_columns": ["email"], "method": "preset", "preset": "email" },
//	  "output": { "dir": "out", "gzip": true },
//	  "runtime": { "chunk_size": 100000 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tablekit/internal/mask"
)

// Job describes a full masking job in JSON. It is the top-level object
// decoded from a job file.
type Job struct {
	// Job names the run; it is used for metrics labeling and identifying runs.
	Job string `json:"job"`

	// Input describes where input data comes from.
	Input Input `json:"input"`

	// Policy is the masking policy applied to the input. Its JSON shape is
	// the exported policy-record format.
	Policy mask.Policy `json:"policy"`

	// Output configures where and how masked data is written.
	Output Output `json:"output"`

	// Runtime controls batching.
	Runtime Runtime `json:"runtime"`
}

// Input identifies the input file and how to read it.
type Input struct {
	// Path is the local filesystem path to the input file. The format is
	// inferred from the suffix (csv, tsv, xlsx, xls, optionally .gz).
	Path string `json:"path"`

	// Sheet selects the Excel worksheet; empty means the first sheet.
	Sheet string `json:"sheet"`

	// HasHeader treats the first row as column names.
	HasHeader bool `json:"has_header"`

	// Options is a free-form map of reader settings. Typical keys:
	//   lazy_quotes (bool) — tolerate bare quotes in delimited input.
	Options Options `json:"options"`
}

// Output configures the masked-output destination.
type Output struct {
	// Dir is the output directory. Empty means alongside the input file.
	Dir string `json:"dir"`

	// Gzip compresses comma-delimited output (.csv.gz).
	Gzip bool `json:"gzip"`
}

// Runtime controls batching for the streaming writer.
type Runtime struct {
	// ChunkSize is the number of rows per batch. Non-positive values fall
	// back to the default at run time.
	ChunkSize int `json:"chunk_size"`
}

// Load reads and decodes a job file.
func Load(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a job from r.
func Decode(r io.Reader) (Job, error) {
	var j Job
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode config: %w", err)
	}
	return j, nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON implements json.Unmarshaler so that a null "options" value
// decodes to a non-nil, empty Options map. An absent key leaves Options nil,
// which is equally safe: the typed getters read nil maps without panicking.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
