package sema

import "strings"

// Result collects the warnings produced by a successful analysis (spec
// §4.8: "Warnings accumulate and appear in a side-channel"). Modeled on
// the teacher's dialect/sql/schema.ValidationResult shape.
type Result struct {
	Warnings []string
}

// HasWarnings reports whether any warnings were recorded.
func (r *Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// Warn appends a warning message.
func (r *Result) Warn(msg string) { r.Warnings = append(r.Warnings, msg) }

// String renders a human-readable summary.
func (r *Result) String() string {
	if !r.HasWarnings() {
		return ""
	}
	var b strings.Builder
	b.WriteString("Warnings:\n")
	for _, w := range r.Warnings {
		b.WriteString("  - ")
		b.WriteString(w)
		b.WriteString("\n")
	}
	return b.String()
}
