package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"strconv"
	"text/template"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"bbox": FormatBoundingBox,
	"esc":  html.EscapeString,
	"conf": func(c float64) string { return strconv.Itoa(int(c + 0.5)) },
	"inc":  func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// Generate renders an hOCR HTML document from the HOCR struct.
func Generate(doc *HOCR) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("hOCR document is nil")
	}
	var buf bytes.Buffer
	if err := hocrTemplate.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("error rendering hOCR template: %w", err)
	}
	return buf.Bytes(), nil
}
