package export

import (
	"bytes"
	"embed"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/gardar/ocrbatch/pkg/pipeline"
)

//go:embed templates/docx
var docxFS embed.FS

var docxTemplates = template.Must(template.New("docx").Funcs(template.FuncMap{
	"esc": xmlEscape,
}).ParseFS(docxFS, "templates/docx/*.tmpl"))

// docxParts maps package part names to their source, in the order they are
// written. Entries ending in .tmpl are rendered.
var docxParts = []struct{ name, src string }{
	{"[Content_Types].xml", "content_types.xml"},
	{"_rels/.rels", "rels.xml"},
	{"docProps/core.xml", "core.xml.tmpl"},
	{"word/_rels/document.xml.rels", "document_rels.xml"},
	{"word/styles.xml", "styles.xml"},
	{"word/document.xml", "document.xml.tmpl"},
}

type docxRun struct {
	Text  string
	Bold  bool
	Break bool // line break before the text
}

type docxParagraph struct {
	Style  string
	Center bool
	Runs   []docxRun
}

type docxDocument struct {
	Title      string
	Created    string
	Paragraphs []docxParagraph
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

func plain(s string) docxRun { return docxRun{Text: s} }

func buildDOCX(res *pipeline.Result, simple bool) docxDocument {
	doc := docxDocument{
		Title:   "OCR Result: " + filepath.Base(res.Source),
		Created: res.ProcessedAt.UTC().Format(time.RFC3339),
	}
	add := func(p docxParagraph) { doc.Paragraphs = append(doc.Paragraphs, p) }

	add(docxParagraph{Style: "Title", Center: true, Runs: []docxRun{plain("OCR Result")}})
	add(docxParagraph{Runs: []docxRun{
		{Text: "Source file: " + filepath.Base(res.Source), Bold: true},
		{Text: "Processed at: " + res.ProcessedAt.Format(timeLayout), Break: true},
	}})

	if !simple {
		stats := docxParagraph{Runs: []docxRun{{Text: "Statistics:", Bold: true}}}
		for _, kv := range statLines(res.Stats) {
			stats.Runs = append(stats.Runs, docxRun{Text: fmt.Sprintf("• %s: %s", kv[0], kv[1]), Break: true})
		}
		add(stats)
	}

	add(docxParagraph{Runs: []docxRun{plain(strings.Repeat("=", 50))}})
	add(docxParagraph{Style: "Heading1", Runs: []docxRun{plain("Recognized Text")}})

	if res.Text != "" {
		for _, line := range strings.Split(res.Text, "\n") {
			if strings.TrimSpace(line) == "" {
				add(docxParagraph{})
				continue
			}
			add(docxParagraph{Runs: []docxRun{plain(line)}})
		}
	}
	return doc
}

func writeDOCX(w io.Writer, res *pipeline.Result, simple bool) error {
	doc := buildDOCX(res, simple)

	zw := zip.NewWriter(w)
	for _, part := range docxParts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return err
		}
		if strings.HasSuffix(part.src, ".tmpl") {
			var buf bytes.Buffer
			if err := docxTemplates.ExecuteTemplate(&buf, part.src, doc); err != nil {
				return fmt.Errorf("rendering %s: %w", part.name, err)
			}
			_, err = fw.Write(buf.Bytes())
		} else {
			var data []byte
			data, err = docxFS.ReadFile("templates/docx/" + part.src)
			if err == nil {
				_, err = fw.Write(data)
			}
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", part.name, err)
		}
	}
	return zw.Close()
}
