// Package view renders the server-side HTML client page.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	once    sync.Once
	tpl     *template.Template
	tplErr  error
	nowFunc = time.Now
)

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(v any) string {
			f, ok := toFloat64(v)
			if !ok {
				return ""
			}
			return decimal.NewFromFloat(f).StringFixed(2)
		},
		"percent": func(v any) string {
			f, ok := toFloat64(v)
			if !ok {
				return ""
			}
			return decimal.NewFromFloat(f).String() + "%"
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
		"year": func() int { return nowFunc().Year() },
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	default:
		return 0, false
	}
}

func parse() {
	tpl, tplErr = template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// Render executes the named embedded template (e.g. "index.html") into w.
func Render(w io.Writer, name string, data any) error {
	once.Do(parse)
	if tplErr != nil {
		return fmt.Errorf("parse templates: %w", tplErr)
	}
	t := tpl.Lookup(name)
	if t == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return t.Execute(w, data)
}
