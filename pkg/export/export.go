// Package export writes recognition results to files.
//
// Every result becomes one file named after the source image plus a
// timestamp, so repeated runs never overwrite earlier output. The writers
// serialize the filtered text and the statistics of a pipeline.Result:
//
// - txt: plain text report, optionally with per-line details
// - docx: minimal Office Open XML document
// - pdf: A4 report, optionally followed by the source image with an
// invisible, searchable OCR text layer
// - hocr: hOCR XHTML with one ocr_line per accepted line
// - json: the result and statistics as JSON
package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gardar/ocrbatch/pkg/pipeline"
)

// ErrUnsupportedFormat is returned for output formats without a writer.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is an output file format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
	FormatHOCR Format = "hocr"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatTXT, FormatDOCX, FormatPDF, FormatHOCR, FormatJSON}

// ParseFormat maps a user supplied name such as "PDF" or ".docx" to a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Options control where and how results are written.
type Options struct {
	Folder     string
	Simple     bool   // leave out statistics and per-line details
	EmbedImage bool   // pdf: append the source image with a text layer
	FontPath   string // pdf: preferred TrueType font
	Lang       string // language code recorded in hocr output
	Now        func() time.Time
	Logger     *slog.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// OutputPath returns the path of the file written for input:
// <folder>/<stem>_<YYYYMMDD_HHMMSS>_fixed.<ext>
func OutputPath(folder, input string, f Format, now time.Time) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(folder, fmt.Sprintf("%s_%s_fixed%s", stem, now.Format("20060102_150405"), f.Ext()))
}

// Save writes res in format f into opts.Folder, creating the folder when
// needed, and returns the path of the new file.
func Save(res *pipeline.Result, f Format, opts Options) (string, error) {
	if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
		return "", fmt.Errorf("creating output folder: %w", err)
	}
	path := OutputPath(opts.Folder, res.Source, f, opts.now())

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(file, res, f, opts); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	opts.logger().Debug("Saved result", "path", path, "format", f)
	return path, nil
}

// Write serializes res in format f to w.
func Write(w io.Writer, res *pipeline.Result, f Format, opts Options) error {
	switch f {
	case FormatTXT:
		return writeTXT(w, res, opts.Simple)
	case FormatDOCX:
		return writeDOCX(w, res, opts.Simple)
	case FormatPDF:
		return writePDF(w, res, opts)
	case FormatHOCR:
		return writeHOCR(w, res, opts.Lang)
	case FormatJSON:
		return writeJSON(w, res, opts.Simple)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

const timeLayout = "2006-01-02 15:04:05"

// statLines returns the statistics as label/value pairs shared by the
// report style writers.
func statLines(s pipeline.Stats) [][2]string {
	return [][2]string{
		{"Processing time", s.Elapsed.Round(time.Millisecond).String()},
		{"Detected lines", fmt.Sprint(s.TotalDetected)},
		{"Accepted lines", fmt.Sprint(s.Accepted)},
		{"Characters", fmt.Sprint(s.Chars)},
		{"Words", fmt.Sprint(s.Words)},
		{"Confidence threshold", fmt.Sprint(s.Threshold)},
		{"Average confidence", fmt.Sprintf("%.3f", s.AverageConfidence)},
	}
}
