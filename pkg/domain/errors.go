package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors maps a payload field name to a single human-readable message.
// Checks are cumulative: every violated field gets an entry, not just the
// first one encountered.
type FieldErrors map[string]string

// Add records a message for a field, keeping the first message when a field
// is reported more than once.
func (f FieldErrors) Add(field, message string) {
	if _, ok := f[field]; ok {
		return
	}
	f[field] = message
}

// Fields returns the violated field names in deterministic order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for field := range f {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// ValidationError carries the field-error map produced by the validation
// gate. It blocks dispatch but is fully recoverable: callers surface the
// fields to the operator and nothing is mutated.
type ValidationError struct {
	Entity EntityType
	Fields FieldErrors
}

func (e ValidationError) Error() string {
	fields := e.Fields.Fields()
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(fields, ", "))
}
