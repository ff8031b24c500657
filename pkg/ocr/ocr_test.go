package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/gardar/ocrbatch/pkg/hocr"
)

type stubEngine struct{ opts Options }

func (s *stubEngine) Name() string { return "stub" }
func (s *stubEngine) Recognize(context.Context, []byte) ([]Line, error) {
	return nil, nil
}
func (s *stubEngine) Close() error { return nil }

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpenFallsBackToSimplerOptions(t *testing.T) {
	var tried []Options
	factory := func(_ context.Context, opts Options) (Engine, error) {
		tried = append(tried, opts)
		if opts.Lang != "en" {
			return nil, errors.New("no traineddata")
		}
		return &stubEngine{opts: opts}, nil
	}

	configured := Options{Lang: "korean", AngleClassification: true}
	engine, used, err := Open(context.Background(), factory, configured, quietLogger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if used != (Options{Lang: "en"}) {
		t.Errorf("used options = %+v", used)
	}
	if engine.(*stubEngine).opts != used {
		t.Errorf("engine built with %+v, reported %+v", engine.(*stubEngine).opts, used)
	}
	want := []Options{configured, {Lang: "ch"}, {Lang: "en"}}
	if !reflect.DeepEqual(tried, want) {
		t.Errorf("tried %+v, want %+v", tried, want)
	}
}

func TestOpenDoesNotRetryIdenticalOptions(t *testing.T) {
	calls := 0
	factory := func(context.Context, Options) (Engine, error) {
		calls++
		return nil, errors.New("broken")
	}
	_, _, err := Open(context.Background(), factory, Options{Lang: "ch"}, quietLogger)
	if !errors.Is(err, ErrEngineInit) {
		t.Fatalf("error = %v, want ErrEngineInit", err)
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want 2 (ch, en)", calls)
	}
}

func TestOpenUsesConfiguredOptionsFirst(t *testing.T) {
	calls := 0
	factory := func(_ context.Context, opts Options) (Engine, error) {
		calls++
		return &stubEngine{opts: opts}, nil
	}
	opts := Options{Lang: "german", UseGPU: true}
	_, used, err := Open(context.Background(), factory, opts, quietLogger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if used != opts || calls != 1 {
		t.Errorf("used %+v after %d calls", used, calls)
	}
}

func TestTesseractLanguages(t *testing.T) {
	tests := []struct {
		code string
		osd  bool
		want []string
	}{
		{"ch", false, []string{"chi_sim", "eng"}},
		{"EN", true, []string{"eng", "osd"}},
		{"eng+deu", false, []string{"eng", "deu"}},
		{"", false, []string{"eng"}},
	}
	for _, tt := range tests {
		if got := TesseractLanguages(tt.code, tt.osd); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("TesseractLanguages(%q, %t) = %v, want %v", tt.code, tt.osd, got, tt.want)
		}
	}
}

func TestDocumentAILanguageHints(t *testing.T) {
	if got := DocumentAILanguageHints("ch"); !reflect.DeepEqual(got, []string{"zh"}) {
		t.Errorf("hints(ch) = %v", got)
	}
	if got := DocumentAILanguageHints("klingon"); got != nil {
		t.Errorf("hints(klingon) = %v, want nil", got)
	}
}

func TestLinesFromHOCR(t *testing.T) {
	doc := hocr.HOCR{Pages: []hocr.Page{{
		Lines: []hocr.Line{
			{
				BBox: hocr.NewBoundingBox(10, 20, 110, 40),
				Words: []hocr.Word{
					{Text: "Hello", Confidence: 90},
					{Text: "World", Confidence: 70},
				},
			},
			{Words: []hocr.Word{{Text: "", Confidence: 95}}},
			{Confidence: 55, Words: []hocr.Word{{Text: "x", Confidence: 10}}},
		},
	}}}

	lines := LinesFromHOCR(doc)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Text != "Hello World" || lines[0].Confidence != 0.8 {
		t.Errorf("first line = %+v", lines[0])
	}
	wantBox := []Point{{10, 20}, {110, 20}, {110, 40}, {10, 40}}
	if !reflect.DeepEqual(lines[0].Box, wantBox) {
		t.Errorf("box = %v", lines[0].Box)
	}
	if lines[1].Confidence != 0.55 {
		t.Errorf("line confidence should win over words, got %v", lines[1].Confidence)
	}
	if lines[1].Box != nil {
		t.Errorf("expected no polygon for zero bbox, got %v", lines[1].Box)
	}
}

func TestLineBounds(t *testing.T) {
	l := Line{Box: []Point{{5, 9}, {1, 3}, {7, 2}}}
	x1, y1, x2, y2, ok := l.Bounds()
	if !ok || x1 != 1 || y1 != 2 || x2 != 7 || y2 != 9 {
		t.Errorf("Bounds() = %v %v %v %v %v", x1, y1, x2, y2, ok)
	}
	if _, _, _, _, ok := (Line{}).Bounds(); ok {
		t.Error("expected ok=false for empty polygon")
	}
}
