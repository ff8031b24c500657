// Package sample synthesizes test images with known text and checks what
// the recognition pipeline makes of them.
//
// QuickCases back the --test mode of the CLI; DiagnosticCases form the
// longer --diagnose suite whose outcome is written as a JSON report.
package sample

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gardar/ocrbatch/pkg/pipeline"
)

// Case is one synthesized image.
type Case struct {
	Name     string
	Text     string
	File     string
	Width    int
	Height   int
	FontSize float64
}

// QuickCases are rendered and processed by --test.
var QuickCases = []Case{
	{Name: "en", Text: "Hello World", File: "test_fixed_en.png", Width: 1000, Height: 300, FontSize: 72},
	{Name: "ch", Text: "測試中文", File: "test_fixed_ch.png", Width: 1000, Height: 300, FontSize: 72},
	{Name: "mixed", Text: "混合 Mixed 123", File: "test_fixed_mixed.png", Width: 1000, Height: 300, FontSize: 72},
}

// DiagnosticCases are rendered and processed by --diagnose.
var DiagnosticCases = []Case{
	diagnostic("english_simple", "Hello"),
	diagnostic("english_phrase", "Hello World"),
	diagnostic("numbers", "123456"),
	diagnostic("chinese_simple", "測試"),
	diagnostic("chinese_phrase", "測試中文"),
	diagnostic("mixed_content", "Mixed 混合 123"),
	diagnostic("multiline", "ABCDEFG\n1234567"),
}

func diagnostic(name, text string) Case {
	return Case{Name: name, Text: text, File: "test_" + name + ".png", Width: 800, Height: 200, FontSize: 48}
}

// Accuracy grades a recognized text against the expected one.
type Accuracy string

const (
	Good    Accuracy = "good"    // one text contains the other, ignoring case
	Partial Accuracy = "partial" // something was recognized but it does not match
	Failed  Accuracy = "failed"  // nothing was recognized
)

// Classify grades recognized against expected.
func Classify(expected, recognized string) Accuracy {
	if strings.TrimSpace(recognized) == "" {
		return Failed
	}
	e, r := strings.ToLower(expected), strings.ToLower(recognized)
	if strings.Contains(r, e) || strings.Contains(e, r) {
		return Good
	}
	return Partial
}

// Outcome is the result of one case.
type Outcome struct {
	Case       string   `json:"case"`
	Image      string   `json:"image"`
	Expected   string   `json:"expected"`
	Recognized string   `json:"recognized"`
	Seconds    float64  `json:"seconds"`
	Accuracy   Accuracy `json:"accuracy"`
	Success    bool     `json:"success"`
	Error      string   `json:"error,omitempty"`
}

// ProcessFunc recognizes the image at path.
type ProcessFunc func(ctx context.Context, path string) (*pipeline.Result, error)

// Run renders every case into dir using the font at fontPath and passes the
// images to process. A case that fails to render or process is recorded as
// failed and the run goes on.
func Run(ctx context.Context, cases []Case, dir, fontPath string, process ProcessFunc, logger *slog.Logger) ([]Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sample folder: %w", err)
	}

	outcomes := make([]Outcome, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		path := filepath.Join(dir, c.File)
		o := Outcome{Case: c.Name, Image: path, Expected: c.Text, Accuracy: Failed}

		data, err := Render(c.Text, c.Width, c.Height, c.FontSize, fontPath)
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			logger.Error("Could not create sample image", "case", c.Name, "err", err)
			o.Error = err.Error()
			outcomes = append(outcomes, o)
			continue
		}
		logger.Debug("Created sample image", "case", c.Name, "path", path)

		start := time.Now()
		res, err := process(ctx, path)
		o.Seconds = time.Since(start).Seconds()
		if err != nil {
			logger.Error("Sample recognition failed", "case", c.Name, "err", err)
			o.Error = err.Error()
			outcomes = append(outcomes, o)
			continue
		}
		o.Recognized = res.Text
		o.Accuracy = Classify(c.Text, res.Text)
		o.Success = o.Accuracy == Good
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}
