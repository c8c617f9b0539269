package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/shopspring/decimal"
)

//go:embed *.tmpl mail/*.tmpl
var files embed.FS

//go:embed static
var static embed.FS

//go:embed static/default.png
var DefaultImage []byte

// Funcs are available in every page template.
var Funcs = template.FuncMap{
	"price": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"add":   func(a, b int) int { return a + b },
}

// Pages parses the HTML page templates for gin.
func Pages() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs).ParseFS(files, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse pages: %w", err)
	}
	return t, nil
}

// Mail parses the email templates.
func Mail() (*template.Template, error) {
	t, err := template.New("").ParseFS(files, "mail/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return t, nil
}

// Static serves the bundled stylesheet and images.
func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
