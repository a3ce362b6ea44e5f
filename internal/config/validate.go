// Package config provides configuration models and helpers for masking jobs.
//
// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"tablekit/internal/mask"
	"tablekit/internal/table"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "input.path",
// "policy.regex_pattern"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	j, err := config.Load(path)
//	if err != nil { ... }
//	issues := config.ValidateJob(j)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job name is empty; metrics will be grouped under the default job",
		})
	}

	issues = append(issues, validateInput(j.Input)...)
	issues = append(issues, validatePolicy(j.Policy)...)
	issues = append(issues, validateRuntime(j.Runtime)...)

	return issues
}

// validateInput validates the input file configuration.
func validateInput(in Input) []Issue {
	var issues []Issue

	if strings.TrimSpace(in.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.path",
			Message:  "input.path must not be empty",
		})
		return issues
	}

	if in.Sheet != "" && table.DetectFormat(in.Path) != table.FormatExcel {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "input.sheet",
			Message:  "sheet is set but the input is not an Excel file; it will be ignored",
		})
	}

	return issues
}

// validatePolicy validates the masking policy, reusing the policy's own
// parameter checks and adding config-level advisories.
func validatePolicy(p mask.Policy) []Issue {
	var issues []Issue

	if len(p.Columns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "policy.target_columns",
			Message:  "no target columns selected; the run will copy the input unchanged",
		})
	}

	if err := p.Validate(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "policy",
			Message:  err.Error(),
		})
	}

	if p.Method != mask.MethodPartial && (p.HeadKeep != 0 || p.TailKeep != 0) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "policy.head_keep",
			Message:  fmt.Sprintf("keep counts are set but method is %q; they only apply to partial", p.Method),
		})
	}
	if p.Method != mask.MethodHash && p.Salt != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "policy.salt",
			Message:  fmt.Sprintf("salt is set but method is %q; it only applies to hash", p.Method),
		})
	}

	return issues
}

// validateRuntime validates Runtime for obvious misconfigurations.
func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if r.ChunkSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.chunk_size",
			Message:  "chunk_size must not be negative",
		})
	} else if r.ChunkSize == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.chunk_size",
			Message:  "chunk_size is unset; the default batch size will be used",
		})
	}

	return issues
}
