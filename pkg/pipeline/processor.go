// Package pipeline turns image files into filtered recognition results.
//
// A Processor holds the engine constructed for the run and the processing
// options. ProcessImage handles one file; ProcessFolder walks a directory,
// hands every result to a sink and keeps going when single files fail.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gardar/ocrbatch/pkg/ocr"
)

// SupportedExtensions lists the file extensions picked up in folder mode.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".gif", ".webp"}

// Result is the outcome of recognizing one image.
type Result struct {
	Source      string     `json:"source"`
	MIME        string     `json:"mime"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Engine      string     `json:"engine"`
	Lines       []ocr.Line `json:"lines"`    // everything the engine detected
	Accepted    []ocr.Line `json:"accepted"` // lines at or above the threshold
	Text        string     `json:"text"`
	Stats       Stats      `json:"stats"`
	ProcessedAt time.Time  `json:"processed_at"`
	// Oriented is set when the engine saw the image with its EXIF
	// orientation applied, so line boxes refer to the rotated geometry.
	Oriented bool `json:"oriented"`
}

// FileError records a file that could not be processed in folder mode.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// BatchSummary aggregates a folder run.
type BatchSummary struct {
	Found     int
	Succeeded int
	Failed    int
	Errors    []FileError
	Elapsed   time.Duration
}

// AllFailed reports whether a non-empty batch produced no result at all.
func (b *BatchSummary) AllFailed() bool {
	return b.Found > 0 && b.Succeeded == 0
}

// Sink persists a result; a returned error marks the file as failed.
type Sink func(*Result) error

// Processor runs images through the engine.
type Processor struct {
	Engine        ocr.Engine
	Threshold     float64
	Preprocess    PreprocessOptions
	MaxImageBytes uint64
	Logger        *slog.Logger
	Now           func() time.Time
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// ProcessImage recognizes the image at path.
func (p *Processor) ProcessImage(ctx context.Context, path string) (*Result, error) {
	log := p.logger().With("file", path)
	start := time.Now()

	img, err := LoadImage(path, p.MaxImageBytes)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded image", "mime", img.MIME, "width", img.Width, "height", img.Height)

	data := img.Data
	if p.Preprocess.Enabled {
		data, err = Preprocess(data, p.Preprocess)
		if err != nil {
			return nil, err
		}
		log.Debug("Preprocessed image", "contrast", p.Preprocess.Contrast, "denoise", p.Preprocess.Denoise)
	}

	lines, err := p.Engine.Recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("recognizing %s: %w", path, err)
	}
	accepted := Filter(lines, p.Threshold)
	elapsed := time.Since(start)

	res := &Result{
		Source:      path,
		MIME:        img.MIME,
		Width:       img.Width,
		Height:      img.Height,
		Engine:      p.Engine.Name(),
		Lines:       lines,
		Accepted:    accepted,
		Text:        JoinText(accepted),
		Stats:       ComputeStats(lines, accepted, p.Threshold, elapsed),
		ProcessedAt: p.now(),
		Oriented:    p.Preprocess.Enabled,
	}
	log.Info("Recognized image", "detected", res.Stats.TotalDetected, "accepted", res.Stats.Accepted,
		"elapsed", elapsed.Round(time.Millisecond))
	return res, nil
}

// ListImages returns the supported image files directly inside dir, sorted
// by name. Extensions are matched case-insensitively.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// ProcessFolder processes every supported image in dir one after another and
// passes each result to sink. Failing files are logged and recorded in the
// summary; only an unreadable folder is returned as an error.
func (p *Processor) ProcessFolder(ctx context.Context, dir string, sink Sink) (*BatchSummary, error) {
	start := time.Now()
	files, err := ListImages(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	summary := &BatchSummary{Found: len(files)}
	p.logger().Info("Processing folder", "folder", dir, "images", len(files))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		p.logger().Debug("Processing image", "index", i+1, "total", len(files), "file", path)

		res, err := p.ProcessImage(ctx, path)
		if err == nil && sink != nil {
			err = sink(res)
		}
		if err != nil {
			p.logger().Error("Skipping image", "file", path, "err", err)
			summary.Failed++
			summary.Errors = append(summary.Errors, FileError{Path: path, Err: err})
			continue
		}
		summary.Succeeded++
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}
