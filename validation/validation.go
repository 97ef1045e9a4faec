// Package validation collects field-level input violations.
package validation

import (
	"sort"
	"strings"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated field names in a stable order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Basic validators. Each records at most one violation per field; the first wins.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "required")
	}
}

// Present flags a field whose value was absent or null in the request.
func Present(field string, ok bool, v Violations) {
	if !ok {
		v.add(field, "required")
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v.add(field, "must_be_non_negative")
	}
}

func MaxFloat(field string, val, maxVal float64, v Violations) {
	if val > maxVal {
		v.add(field, "too_large")
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v.add(field, "must_be_non_negative")
	}
}

func NonZeroInt(field string, val int, v Violations) {
	if val == 0 {
		v.add(field, "required")
	}
}

func (v Violations) add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}
