// Package quality defines the data-quality warnings produced by every stage
// of the pipeline and the Report that accumulates them.
//
// None of the warning kinds abort a run. They describe substitutions the
// pipeline made (empty source, null column, imputed value) so callers can
// judge confidence in the result without being blocked by it.
package quality

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyDataset is returned when none of the input sources could be read.
var ErrEmptyDataset = errors.New("no input source could be loaded")

// Kind classifies a Warning.
type Kind string

const (
	// SourceUnavailable: an input file is missing or unreadable; its
	// contribution is treated as empty.
	SourceUnavailable Kind = "source_unavailable"
	// SchemaMismatch: a required column is absent after normalization and was
	// substituted with nulls.
	SchemaMismatch Kind = "schema_mismatch"
	// ImputationDegraded: a column had no values to average; zero was used.
	ImputationDegraded Kind = "imputation_degraded"
	// UndefinedMetric: a per-record ratio has a zero, negative or missing
	// denominator. The record is kept and flagged.
	UndefinedMetric Kind = "undefined_metric"
	// MalformedRow: a CSV row could not be parsed and was skipped.
	MalformedRow Kind = "malformed_row"
	// InvalidValue: a cell could not be parsed as the field's type and was
	// treated as missing.
	InvalidValue Kind = "invalid_value"
	// DuplicateKey: a join key matched more than one row; the first won.
	DuplicateKey Kind = "duplicate_key"
	// ValueImputed: missing values were replaced by the column mean.
	ValueImputed Kind = "value_imputed"
)

// Warning is one structured data-quality finding.
type Warning struct {
	Kind    Kind   `json:"kind"`
	Source  string `json:"source,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	// Count is the number of rows or values affected, when meaningful.
	Count int `json:"count,omitempty"`
}

// String renders the warning on one line, e.g.
// "schema_mismatch [vehicles.co2_emissions_kg_per_km]: column missing (12)".
func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Source != "" || w.Column != "" {
		b.WriteString(" [")
		b.WriteString(w.Source)
		if w.Column != "" {
			if w.Source != "" {
				b.WriteByte('.')
			}
			b.WriteString(w.Column)
		}
		b.WriteByte(']')
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	if w.Count > 0 {
		fmt.Fprintf(&b, " (%d)", w.Count)
	}
	return b.String()
}

// Report is an append-only list of warnings in the order they were raised.
type Report struct {
	Warnings []Warning `json:"warnings"`
}

// Add appends warnings to the report.
func (r *Report) Add(ws ...Warning) {
	r.Warnings = append(r.Warnings, ws...)
}

// Len returns the number of warnings.
func (r Report) Len() int { return len(r.Warnings) }

// Has reports whether at least one warning of kind k was recorded.
func (r Report) Has(k Kind) bool {
	for _, w := range r.Warnings {
		if w.Kind == k {
			return true
		}
	}
	return false
}

// Filter returns the warnings of kind k in report order.
func (r Report) Filter(k Kind) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Kind == k {
			out = append(out, w)
		}
	}
	return out
}

// CountByKind tallies warnings per kind.
func (r Report) CountByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, w := range r.Warnings {
		out[w.Kind]++
	}
	return out
}

// Kinds returns the distinct kinds present, sorted by name.
func (r Report) Kinds() []Kind {
	counts := r.CountByKind()
	out := make([]Kind, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LowConfidence reports whether the run produced warnings that make the
// derived metrics unreliable: a missing source, a missing column, or an
// imputation with nothing to average.
func (r Report) LowConfidence() bool {
	return r.Has(SourceUnavailable) || r.Has(SchemaMismatch) || r.Has(ImputationDegraded)
}
