// Package tesseract implements ocr.Engine on top of libtesseract through
// gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
)

// Engine recognizes text with a single long-lived gosseract client.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
	langs  []string
}

// New configures a Tesseract client and runs a probe recognition so
// that missing language data is reported here rather than on the first image.
func New(ctx context.Context, opts ocr.Options) (ocr.Engine, error) {
	if opts.UseGPU {
		slog.Warn("Tesseract has no GPU support, ignoring use_gpu")
	}
	client := gosseract.NewClient()
	langs := ocr.TesseractLanguages(opts.Lang, opts.AngleClassification)
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set languages %v: %w", langs, err)
	}
	psm := gosseract.PSM_AUTO
	if opts.AngleClassification {
		psm = gosseract.PSM_AUTO_OSD
	}
	if err := client.SetPageSegMode(psm); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if !opts.ShowLog {
		if err := client.DisableOutput(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to silence tesseract: %w", err)
		}
	}

	t := &Engine{client: client, langs: langs}
	if err := t.probe(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return t, nil
}

func (t *Engine) Name() string { return "tesseract " + gosseract.Version() }

// Recognize runs the engine on image and reads lines from its hOCR output.
func (t *Engine) Recognize(ctx context.Context, image []byte) ([]ocr.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	out, err := t.client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}
	doc, err := hocr.Parse([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tesseract hOCR: %w", err)
	}
	return ocr.LinesFromHOCR(doc), nil
}

func (t *Engine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

// probe forces tesseract to initialize with the configured languages.
func (t *Engine) probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode probe image: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to set probe image: %w", err)
	}
	if _, err := t.client.Text(); err != nil {
		return fmt.Errorf("tesseract failed to initialize with languages %v: %w", t.langs, err)
	}
	return nil
}
