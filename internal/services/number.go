package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// coerceNumber accepts a JSON number or a string holding a decimal number.
// Absent, null, values outside float64 range and anything else report ok=false.
func coerceNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var d decimal.Decimal
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		parsed, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		d = parsed
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, false
		}
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0, false
		}
		d = parsed
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// coerceString returns the trimmed value of a JSON string.
func coerceString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
