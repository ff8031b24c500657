package sample

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/goccy/go-json"
)

// Report summarizes a diagnostic run.
type Report struct {
	Timestamp      time.Time         `json:"timestamp"`
	Environment    map[string]string `json:"environment"`
	Config         map[string]string `json:"config"`
	Total          int               `json:"total"`
	Successful     int               `json:"successful"`
	SuccessRate    float64           `json:"success_rate"`    // percent
	AverageSeconds float64           `json:"average_seconds"` // over successful cases
	Results        []Outcome         `json:"results"`
}

// NewReport aggregates outcomes. engine names the engine in use and config
// holds the effective engine options.
func NewReport(outcomes []Outcome, engine string, config map[string]string, now time.Time) *Report {
	r := &Report{
		Timestamp: now,
		Environment: map[string]string{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"engine":     engine,
		},
		Config:  config,
		Total:   len(outcomes),
		Results: outcomes,
	}
	var seconds float64
	for _, o := range outcomes {
		if o.Success {
			r.Successful++
			seconds += o.Seconds
		}
	}
	if r.Total > 0 {
		r.SuccessRate = float64(r.Successful) / float64(r.Total) * 100
	}
	if r.Successful > 0 {
		r.AverageSeconds = seconds / float64(r.Successful)
	}
	return r
}

// Verdict is a one line assessment of the success rate.
func (r *Report) Verdict() string {
	switch {
	case r.SuccessRate >= 80:
		return "OCR system is working well"
	case r.SuccessRate >= 50:
		return "OCR system works partially, check image quality or adjust the parameters"
	default:
		return "OCR system has problems, check the engine installation and language data"
	}
}

// Save writes the report as ocr_diagnostic_<YYYYMMDD_HHMMSS>.json into dir.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("ocr_diagnostic_%s.json", r.Timestamp.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
