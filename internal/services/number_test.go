package services

import (
	"encoding/json"
	"testing"
)

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`2.5`, 2.5, true},
		{`0`, 0, true},
		{`-1`, -1, true},
		{`"3.10"`, 3.1, true},
		{`" 7 "`, 7, true},
		{`1e2`, 100, true},
		{`null`, 0, false},
		{``, 0, false},
		{`"abc"`, 0, false},
		{`""`, 0, false},
		{`true`, 0, false},
		{`[1]`, 0, false},
		{`{"v":1}`, 0, false},
		{`1e400`, 0, false},
		{`"-1e400"`, 0, false},
		{`1.7e308`, 1.7e308, true},
	}
	for _, c := range cases {
		got, ok := coerceNumber(json.RawMessage(c.raw))
		if ok != c.wantOK || got != c.want {
			t.Errorf("coerceNumber(%s) = %v,%v want %v,%v", c.raw, got, ok, c.want, c.wantOK)
		}
	}
}

func TestCoerceString(t *testing.T) {
	if got := coerceString(json.RawMessage(`"  Milk "`)); got != "Milk" {
		t.Errorf("got %q", got)
	}
	if got := coerceString(json.RawMessage(`42`)); got != "" {
		t.Errorf("non-string should be empty, got %q", got)
	}
	if got := coerceString(nil); got != "" {
		t.Errorf("absent should be empty, got %q", got)
	}
}
