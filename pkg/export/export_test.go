package export

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zip"
	pdfcpuapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/bmp"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pipeline"
)

var fixedTime = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

func box(x1, y1, x2, y2 float64) []ocr.Point {
	return []ocr.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
}

func sampleImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

// sampleResult builds a result whose source is a real PNG in dir.
func sampleResult(t *testing.T, dir string) *pipeline.Result {
	t.Helper()
	src := filepath.Join(dir, "scan.page.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, sampleImage(200, 100)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	lines := []ocr.Line{
		{Text: "Hello World", Confidence: 0.95, Box: box(10, 10, 120, 30)},
		{Text: "x<y & z", Confidence: 0.8, Box: box(10, 40, 90, 60)},
		{Text: "smudge", Confidence: 0.1, Box: box(150, 80, 190, 95)},
		{Text: "測試中文", Confidence: 0.7, Box: box(10, 70, 100, 90)},
	}
	accepted := pipeline.Filter(lines, 0.5)
	return &pipeline.Result{
		Source:      src,
		MIME:        "image/png",
		Width:       200,
		Height:      100,
		Engine:      "stub",
		Lines:       lines,
		Accepted:    accepted,
		Text:        pipeline.JoinText(accepted),
		Stats:       pipeline.ComputeStats(lines, accepted, 0.5, 1500*time.Millisecond),
		ProcessedAt: fixedTime,
	}
}

func render(t *testing.T, res *pipeline.Result, f Format, opts Options) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, res, f, opts); err != nil {
		t.Fatalf("Write(%s): %v", f, err)
	}
	if buf.Len() == 0 {
		t.Fatalf("Write(%s) produced no output", f)
	}
	return buf.Bytes()
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"txt": FormatTXT, "PDF": FormatPDF, ".docx": FormatDOCX, " hocr ": FormatHOCR, "Json": FormatJSON,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"rtf", "", "odt"} {
		if _, err := ParseFormat(in); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) err = %v, want ErrUnsupportedFormat", in, err)
		}
	}
	if err := Write(io.Discard, &pipeline.Result{}, Format("rtf"), Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Write(rtf) err = %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("out", "/data/in/scan.page.png", FormatDOCX, fixedTime)
	want := filepath.Join("out", "scan.page_20240301_123045_fixed.docx")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
	later := OutputPath("out", "/data/in/scan.page.png", FormatDOCX, fixedTime.Add(time.Second))
	if later == got {
		t.Error("paths one second apart must differ")
	}
}

func TestSaveAllFormats(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult(t, dir)
	out := filepath.Join(dir, "nested", "output")

	for _, f := range Formats {
		opts := Options{Folder: out, Now: func() time.Time { return fixedTime }}
		path, err := Save(res, f, opts)
		if err != nil {
			t.Fatalf("Save(%s): %v", f, err)
		}
		if want := OutputPath(out, res.Source, f, fixedTime); path != want {
			t.Errorf("Save(%s) path = %q, want %q", f, path, want)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("Save(%s) left no output: %v", f, err)
		}
	}
}

func TestTXT(t *testing.T) {
	res := sampleResult(t, t.TempDir())

	full := string(render(t, res, FormatTXT, Options{}))
	for _, s := range []string{
		"=== OCR Result ===",
		"Source file: scan.page.png",
		"Processed at: 2024-03-01 12:30:45",
		"=== Statistics ===",
		"Detected lines: 4",
		"Accepted lines: 3",
		"Average confidence: 0.817",
		"Hello World\nx<y & z\n測試中文",
		"Line 1: 'Hello World' (confidence: 0.950)",
		"Box: [(10, 10), (120, 10), (120, 30), (10, 30)]",
		"=== All Detections (including low confidence) ===",
		"Line 3: 'smudge' (confidence: 0.100)",
	} {
		if !strings.Contains(full, s) {
			t.Errorf("verbose output missing %q:\n%s", s, full)
		}
	}

	simple := string(render(t, res, FormatTXT, Options{Simple: true}))
	if !strings.Contains(simple, "Hello World") {
		t.Error("simple output lost the text")
	}
	for _, s := range []string{"Statistics", "Details", "All Detections"} {
		if strings.Contains(simple, s) {
			t.Errorf("simple output contains %q", s)
		}
	}

	res.Lines = res.Accepted
	if strings.Contains(string(render(t, res, FormatTXT, Options{})), "All Detections") {
		t.Error("all detections block written although nothing was rejected")
	}
}

// docxTexts returns the text of every paragraph in word/document.xml and
// checks that every part of the package is well-formed XML.
func docxTexts(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip archive: %v", err)
	}
	parts := map[string]bool{}
	var paragraphs []string
	for _, f := range zr.File {
		parts[f.Name] = true
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		dec := xml.NewDecoder(rc)
		var inText bool
		var cur strings.Builder
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("%s is not well-formed: %v", f.Name, err)
			}
			if f.Name != "word/document.xml" {
				continue
			}
			switch el := tok.(type) {
			case xml.StartElement:
				if el.Name.Local == "p" {
					cur.Reset()
				}
				inText = el.Name.Local == "t"
			case xml.EndElement:
				if el.Name.Local == "p" {
					paragraphs = append(paragraphs, cur.String())
				}
				inText = false
			case xml.CharData:
				if inText {
					cur.Write(el)
				}
			}
		}
		rc.Close()
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "docProps/core.xml"} {
		if !parts[name] {
			t.Errorf("package is missing %s", name)
		}
	}
	return paragraphs
}

func TestDOCX(t *testing.T) {
	res := sampleResult(t, t.TempDir())
	res.Text = "Hello World\n\nx<y & z\n測試中文"

	paragraphs := docxTexts(t, render(t, res, FormatDOCX, Options{}))
	if paragraphs[0] != "OCR Result" {
		t.Errorf("first paragraph = %q, want the title", paragraphs[0])
	}
	joined := strings.Join(paragraphs, "|")
	for _, s := range []string{
		"Source file: scan.page.png",
		"Statistics:",
		strings.Repeat("=", 50),
		"|Recognized Text|Hello World||x<y & z|測試中文",
	} {
		if !strings.Contains(joined, s) {
			t.Errorf("document missing %q in %q", s, joined)
		}
	}

	simple := strings.Join(docxTexts(t, render(t, res, FormatDOCX, Options{Simple: true})), "|")
	if strings.Contains(simple, "Statistics") {
		t.Error("simple document contains statistics")
	}
}

func validatePDF(t *testing.T, data []byte) int {
	t.Helper()
	model.ConfigPath = "disable"
	conf := model.NewDefaultConfiguration()
	if err := pdfcpuapi.Validate(bytes.NewReader(data), conf); err != nil {
		t.Fatalf("invalid PDF: %v", err)
	}
	n, err := pdfcpuapi.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestPDF(t *testing.T) {
	res := sampleResult(t, t.TempDir())

	if n := validatePDF(t, render(t, res, FormatPDF, Options{})); n != 1 {
		t.Errorf("got %d pages, want 1", n)
	}

	data := render(t, res, FormatPDF, Options{EmbedImage: true})
	if n := validatePDF(t, data); n != 2 {
		t.Errorf("got %d pages with embedded image, want 2", n)
	}
	if !bytes.Contains(data, []byte("/OCG")) {
		t.Error("embedded image page has no OCR text layer")
	}
}

func TestPDFEmptyResult(t *testing.T) {
	res := sampleResult(t, t.TempDir())
	res.Accepted, res.Text = nil, ""
	res.Stats = pipeline.ComputeStats(res.Lines, nil, 0.99, 0)
	validatePDF(t, render(t, res, FormatPDF, Options{Simple: true, EmbedImage: true}))
}

func TestLatin1(t *testing.T) {
	if got := latin1("Café 測試"); got != "Caf\xe9 ??" {
		t.Errorf("latin1 = %q", got)
	}
}

func TestPDFImageReencodesBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, sampleImage(8, 6)); err != nil {
		t.Fatal(err)
	}
	data, typ, err := pdfImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if typ != "PNG" {
		t.Errorf("type = %s, want PNG", typ)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		t.Errorf("re-encoded data is not PNG: %v", err)
	}

	var pngBuf bytes.Buffer
	png.Encode(&pngBuf, sampleImage(4, 4))
	if _, typ, _ := pdfImage(pngBuf.Bytes()); typ != "PNG" {
		t.Errorf("png type = %s", typ)
	}
	if _, _, err := pdfImage([]byte("nope")); err == nil {
		t.Error("expected error for non-image data")
	}
}

// exifRotatedJPEG returns a JPEG whose EXIF orientation asks for a 90
// degree clockwise rotation.
func exifRotatedJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sampleImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	app1 := []byte{
		0xff, 0xe1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0, 0,
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, 0x06, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	out := append([]byte{}, data[:2]...)
	out = append(out, app1...)
	return append(out, data[2:]...)
}

func TestSourceImageFollowsOrientation(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult(t, dir)
	res.Source = filepath.Join(dir, "rotated.jpg")
	if err := os.WriteFile(res.Source, exifRotatedJPEG(t, 200, 100), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		oriented bool
		w, h     int
	}{
		{false, 200, 100},
		{true, 100, 200},
	} {
		res.Oriented = tc.oriented
		data, err := sourceImage(res)
		if err != nil {
			t.Fatalf("oriented=%t: %v", tc.oriented, err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != tc.w || cfg.Height != tc.h {
			t.Errorf("oriented=%t: embedded image is %dx%d, want %dx%d", tc.oriented, cfg.Width, cfg.Height, tc.w, tc.h)
		}
	}

	res.Oriented = true
	data := render(t, res, FormatPDF, Options{EmbedImage: true})
	if !bytes.Contains(data, []byte("/OCG")) {
		t.Error("embedded page has no text layer")
	}
}

func TestHOCR(t *testing.T) {
	res := sampleResult(t, t.TempDir())
	data := render(t, res, FormatHOCR, Options{Lang: "en"})

	doc, err := hocr.Parse(data)
	if err != nil {
		t.Fatalf("output does not parse as hOCR: %v", err)
	}
	page := doc.Pages[0]
	if page.BBox != hocr.NewBoundingBox(0, 0, 200, 100) {
		t.Errorf("page bbox = %+v", page.BBox)
	}
	if len(page.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(page.Lines))
	}
	if got := page.Lines[1].Text(); got != "x<y & z" {
		t.Errorf("escaped line text = %q", got)
	}

	back := ocr.LinesFromHOCR(doc)
	if len(back) != 3 || back[0].Text != "Hello World" {
		t.Errorf("LinesFromHOCR = %+v", back)
	}
	if c := back[0].Confidence; c < 0.94 || c > 0.96 {
		t.Errorf("confidence = %v, want 0.95", c)
	}
}

func TestHOCRWordLayout(t *testing.T) {
	line := hocrLine(ocr.Line{Text: "ab cd", Confidence: 0.9, Box: box(0, 0, 50, 10)}, "en")
	if len(line.Words) != 2 {
		t.Fatalf("got %d words", len(line.Words))
	}
	if w := line.Words[0].BBox; w.X1 != 0 || w.X2 != 20 {
		t.Errorf("first word box %+v", w)
	}
	if w := line.Words[1].BBox; w.X1 != 30 || w.X2 != 50 {
		t.Errorf("second word box %+v", w)
	}
	if c := line.Words[1].Confidence; c < 89.9 || c > 90.1 {
		t.Errorf("word confidence = %v", c)
	}
}

func TestJSON(t *testing.T) {
	res := sampleResult(t, t.TempDir())

	var doc map[string]any
	if err := json.Unmarshal(render(t, res, FormatJSON, Options{}), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["text"] != res.Text || doc["source"] != "scan.page.png" {
		t.Errorf("unexpected document %v", doc)
	}
	if lines, _ := doc["lines"].([]any); len(lines) != 3 {
		t.Errorf("got %d lines, want 3", len(lines))
	}
	if all, _ := doc["all_detections"].([]any); len(all) != 4 {
		t.Errorf("got %d detections, want 4", len(all))
	}
	stats, _ := doc["stats"].(map[string]any)
	if stats["accepted"] != float64(3) || stats["elapsed_seconds"] != 1.5 {
		t.Errorf("stats = %v", stats)
	}

	var simple map[string]any
	if err := json.Unmarshal(render(t, res, FormatJSON, Options{Simple: true}), &simple); err != nil {
		t.Fatal(err)
	}
	if _, ok := simple["stats"]; ok {
		t.Error("simple output contains stats")
	}
}
