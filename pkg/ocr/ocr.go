// Package ocr is the boundary to the external recognition engine.
//
// An Engine is constructed once per run with fixed Options and then called
// once per image. It returns the detected text lines together with their
// confidence and bounding polygon. Nothing in this package recognizes text
// itself; that work happens inside Tesseract (via gosseract) or Google
// Document AI.
//
// Main Functions:
//
// - Open: constructs an engine, falling back to simpler options on failure
// - LinesFromHOCR: flattens an hOCR document into recognition lines
//
// The engines themselves live in the tesseract (local, libtesseract) and
// documentai (remote, Google Document AI) subpackages.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// ErrEngineInit is returned when no engine configuration could be initialized.
var ErrEngineInit = errors.New("OCR engine initialization failed")

// Point is a vertex of a bounding polygon in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is one detected text region as reported by the engine.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
	Box        []Point `json:"bbox,omitempty"`
}

// Bounds returns the axis-aligned rectangle enclosing the polygon.
func (l Line) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	if len(l.Box) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = l.Box[0].X, l.Box[0].Y
	maxX, maxY = minX, minY
	for _, p := range l.Box[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY, true
}

// Options configure an engine for the whole run.
type Options struct {
	Lang                string // PaddleOCR style language code, e.g. "ch" or "en"
	AngleClassification bool   // detect and correct rotated text
	UseGPU              bool
	ShowLog             bool // let the engine print its own diagnostics
}

func (o Options) String() string {
	return fmt.Sprintf("lang=%s use_angle_cls=%t use_gpu=%t", o.Lang, o.AngleClassification, o.UseGPU)
}

// Engine is the opaque recognition capability.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) ([]Line, error)
	Close() error
}

// Factory constructs an engine for the given options.
type Factory func(ctx context.Context, opts Options) (Engine, error)
