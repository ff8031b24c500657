// Package documentai implements ocr.Engine with a Google Document AI OCR
// processor. Authentication uses the credentials file from the processor
// config or the GOOGLE_APPLICATION_CREDENTIALS environment variable.
package documentai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

// Config identifies the Document AI OCR processor to use.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"` // falls back to GOOGLE_APPLICATION_CREDENTIALS
	DebugDir        string `yaml:"debug_dir"`        // dump raw responses as JSON when set
}

// LoadConfig reads the processor settings from a YAML file:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("%s: project_id, location and processor_id are required", path)
	}
	return &cfg, nil
}

func (c *Config) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// Engine sends each image to a Document AI processor through one client
// that lives for the whole run.
type Engine struct {
	client *documentai.DocumentProcessorClient
	cfg    Config
	hints  []string

	mu  sync.Mutex
	seq int
}

// NewFactory returns a Factory bound to the processor in cfg.
func NewFactory(cfg *Config) ocr.Factory {
	return func(ctx context.Context, opts ocr.Options) (ocr.Engine, error) {
		e, err := New(ctx, cfg, opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

// New creates the processor client.
func New(ctx context.Context, cfg *Config, opts ocr.Options) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("document AI config is required")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	clientOpts := []option.ClientOption{option.WithEndpoint(endpoint)}
	creds := cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if creds != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(creds))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return &Engine{
		client: client,
		cfg:    *cfg,
		hints:  ocr.DocumentAILanguageHints(opts.Lang),
	}, nil
}

func (d *Engine) Name() string { return "documentai " + d.cfg.ProcessorID }

// Recognize processes a single image and returns its text lines.
func (d *Engine) Recognize(ctx context.Context, image []byte) ([]ocr.Line, error) {
	req := &documentaipb.ProcessRequest{
		Name: d.cfg.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: mimetype.Detect(image).String(),
			},
		},
		SkipHumanReview: true,
	}
	if len(d.hints) > 0 {
		req.ProcessOptions = &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				Hints: &documentaipb.OcrConfig_Hints{LanguageHints: d.hints},
			},
		}
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	if d.cfg.DebugDir != "" {
		d.dump(resp.Document)
	}
	return ocr.LinesFromHOCR(HOCRFromDocument(resp.Document)), nil
}

func (d *Engine) Close() error { return d.client.Close() }

// dump writes the raw response for debugging. Failures are logged and do
// not fail the recognition.
func (d *Engine) dump(doc *documentaipb.Document) {
	d.mu.Lock()
	d.seq++
	n := d.seq
	d.mu.Unlock()

	if err := writeDump(d.cfg.DebugDir, n, doc); err != nil {
		slog.Warn("Failed to write Document AI response dump", "dir", d.cfg.DebugDir, "error", err)
	}
}

func writeDump(dir string, n int, doc *documentaipb.Document) error {
	data, err := protojson.MarshalOptions{Multiline: true}.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("documentai_%03d.json", n)), data, 0644)
}

// HOCRFromDocument converts a Document AI response into the hOCR model,
// with one hOCR line per Document AI line.
func HOCRFromDocument(doc *documentaipb.Document) hocr.HOCR {
	result := hocr.HOCR{
		Title:    "Document OCR",
		Metadata: map[string]string{"ocr-system": "Document AI OCR"},
	}
	if doc == nil {
		return result
	}
	for i, page := range doc.Pages {
		pageNum := int(page.PageNumber)
		if pageNum == 0 {
			pageNum = i + 1
		}
		ocrPage := hocr.Page{
			ID:         fmt.Sprintf("page_%d", pageNum),
			PageNumber: pageNum,
		}
		if page.Dimension != nil {
			ocrPage.BBox = hocr.NewBoundingBox(0, 0, float64(page.Dimension.Width), float64(page.Dimension.Height))
		}
		if len(page.DetectedLanguages) > 0 {
			ocrPage.Lang = page.DetectedLanguages[0].LanguageCode
		}
		for lidx, line := range page.Lines {
			ocrPage.Lines = append(ocrPage.Lines, convertLine(line, page, doc.Text, pageNum, lidx))
		}
		result.Pages = append(result.Pages, ocrPage)
	}
	return result
}

// convertLine turns a Document AI line into an hOCR line, attaching the
// tokens that fall inside it as words.
func convertLine(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page,
	fullText string, pageNum, lineIdx int) hocr.Line {

	ocrLine := hocr.Line{
		ID:   fmt.Sprintf("line_%d_%d", pageNum, lineIdx+1),
		BBox: layoutBox(line.Layout, page.Dimension),
	}
	if line.Layout != nil {
		ocrLine.Confidence = float64(line.Layout.Confidence * 100)
	}
	if len(line.DetectedLanguages) > 0 {
		ocrLine.Lang = line.DetectedLanguages[0].LanguageCode
	}

	for tidx, token := range page.Tokens {
		if !isElementInParent(token.Layout, line.Layout) {
			continue
		}
		text := strings.TrimSpace(textFromLayout(token.Layout, fullText))
		if text == "" {
			continue
		}
		word := hocr.Word{
			ID:   fmt.Sprintf("word_%d_%d_%d", pageNum, lineIdx+1, tidx+1),
			Text: text,
			BBox: layoutBox(token.Layout, page.Dimension),
			Lang: ocrLine.Lang,
		}
		if token.Layout != nil {
			word.Confidence = float64(token.Layout.Confidence * 100)
		}
		ocrLine.Words = append(ocrLine.Words, word)
	}

	if len(ocrLine.Words) == 0 {
		if text := strings.TrimSpace(textFromLayout(line.Layout, fullText)); text != "" {
			ocrLine.Words = []hocr.Word{{
				ID:         fmt.Sprintf("word_%d_%d_1", pageNum, lineIdx+1),
				Text:       text,
				BBox:       ocrLine.BBox,
				Confidence: ocrLine.Confidence,
			}}
		}
	}
	return ocrLine
}

// textFromLayout extracts text from a layout's text anchor segments
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	runes := []rune(fullText)
	var sb strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := max(0, int(seg.StartIndex))
		end := min(len(runes), int(seg.EndIndex))
		if start > end {
			start = end
		}
		sb.WriteString(string(runes[start:end]))
	}
	return sb.String()
}

// layoutBox converts the layout polygon into pixel coordinates. Normalized
// vertices are scaled by the page dimension.
func layoutBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) hocr.BoundingBox {
	if layout == nil || layout.BoundingPoly == nil {
		return hocr.BoundingBox{}
	}
	var xs, ys []float64
	if nv := layout.BoundingPoly.NormalizedVertices; len(nv) > 0 && dim != nil {
		for _, v := range nv {
			xs = append(xs, float64(v.X*dim.Width))
			ys = append(ys, float64(v.Y*dim.Height))
		}
	} else {
		for _, v := range layout.BoundingPoly.Vertices {
			xs = append(xs, float64(v.X))
			ys = append(ys, float64(v.Y))
		}
	}
	if len(xs) == 0 {
		return hocr.BoundingBox{}
	}
	box := hocr.NewBoundingBox(xs[0], ys[0], xs[0], ys[0])
	for i := range xs {
		box.X1 = min(box.X1, xs[i])
		box.Y1 = min(box.Y1, ys[i])
		box.X2 = max(box.X2, xs[i])
		box.Y2 = max(box.Y2, ys[i])
	}
	return box
}

// isElementInParent reports whether the element's first text segment lies
// inside the parent's first text segment.
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	if element == nil || parent == nil || element.TextAnchor == nil || parent.TextAnchor == nil ||
		len(element.TextAnchor.TextSegments) == 0 || len(parent.TextAnchor.TextSegments) == 0 {
		return false
	}
	e := element.TextAnchor.TextSegments[0]
	p := parent.TextAnchor.TextSegments[0]
	return e.StartIndex >= p.StartIndex && e.EndIndex <= p.EndIndex
}
