package documentai

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrbatch/pkg/ocr"
)

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func normBox(x1, y1, x2, y2 float32) *documentaipb.BoundingPoly {
	return &documentaipb.BoundingPoly{NormalizedVertices: []*documentaipb.NormalizedVertex{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
	}}
}

func TestHOCRFromDocument(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "Hello World\n123\n",
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 200},
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: &documentaipb.Document_Page_Layout{
					TextAnchor: anchor(0, 12), Confidence: 0.9, BoundingPoly: normBox(0.1, 0.25, 0.6, 0.5),
				}},
				{Layout: &documentaipb.Document_Page_Layout{
					TextAnchor: anchor(12, 16), Confidence: 0.4, BoundingPoly: normBox(0.1, 0.6, 0.3, 0.8),
				}},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(0, 6), Confidence: 0.95}},
				{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(6, 12), Confidence: 0.85}},
			},
		}},
	}

	h := HOCRFromDocument(doc)
	if len(h.Pages) != 1 || len(h.Pages[0].Lines) != 2 {
		t.Fatalf("unexpected structure: %+v", h)
	}
	if h.Pages[0].BBox.X2 != 1000 || h.Pages[0].BBox.Y2 != 200 {
		t.Errorf("page bbox = %+v", h.Pages[0].BBox)
	}

	lines := ocr.LinesFromHOCR(h)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Text != "Hello World" {
		t.Errorf("line 1 text = %q", lines[0].Text)
	}
	if lines[1].Text != "123" {
		t.Errorf("line 2 text = %q (no tokens, falls back to line text)", lines[1].Text)
	}
	x1, y1, x2, y2, ok := lines[0].Bounds()
	if !ok || !near(x1, 100) || !near(y1, 50) || !near(x2, 600) || !near(y2, 100) {
		t.Errorf("line 1 bounds = %v %v %v %v", x1, y1, x2, y2)
	}
	if lines[1].Confidence < 0.39 || lines[1].Confidence > 0.41 {
		t.Errorf("line 2 confidence = %v, want 0.4", lines[1].Confidence)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestHOCRFromNilDocument(t *testing.T) {
	if h := HOCRFromDocument(nil); len(h.Pages) != 0 {
		t.Errorf("expected no pages, got %d", len(h.Pages))
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "docai.yml")
	if err := os.WriteFile(good, []byte("project_id: p\nlocation: eu\nprocessor_id: abc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(good)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got := cfg.processorName(); got != "projects/p/locations/eu/processors/abc" {
		t.Errorf("processorName() = %q", got)
	}

	incomplete := filepath.Join(dir, "partial.yml")
	if err := os.WriteFile(incomplete, []byte("project_id: p\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(incomplete); err == nil {
		t.Error("expected error for incomplete config")
	}
}

func TestWriteDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	doc := &documentaipb.Document{Text: "Hello"}
	if err := writeDump(dir, 7, doc); err != nil {
		t.Fatalf("writeDump() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "documentai_007.json")); err != nil {
		t.Errorf("dump file missing: %v", err)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := writeDump(filepath.Join(blocker, "sub"), 1, doc); err == nil {
		t.Error("expected error when the dump directory cannot be created")
	}
}

func TestNewFactoryReturnsNilEngineOnError(t *testing.T) {
	e, err := NewFactory(nil)(context.Background(), ocr.Options{Lang: "en"})
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if e != nil {
		t.Errorf("engine = %#v, want nil interface", e)
	}
}
