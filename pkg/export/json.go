package export

import (
	"io"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pipeline"
)

type jsonStats struct {
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	TotalDetected     int     `json:"total_detected"`
	Accepted          int     `json:"accepted"`
	Chars             int     `json:"chars"`
	Words             int     `json:"words"`
	Threshold         float64 `json:"threshold"`
	AverageConfidence float64 `json:"average_confidence"`
}

type jsonDocument struct {
	Source        string     `json:"source"`
	ProcessedAt   time.Time  `json:"processed_at"`
	Engine        string     `json:"engine"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Text          string     `json:"text"`
	Stats         *jsonStats `json:"stats,omitempty"`
	Lines         []ocr.Line `json:"lines"`
	AllDetections []ocr.Line `json:"all_detections,omitempty"`
}

func writeJSON(w io.Writer, res *pipeline.Result, simple bool) error {
	doc := jsonDocument{
		Source:      filepath.Base(res.Source),
		ProcessedAt: res.ProcessedAt,
		Engine:      res.Engine,
		Width:       res.Width,
		Height:      res.Height,
		Text:        res.Text,
		Lines:       res.Accepted,
	}
	if doc.Lines == nil {
		doc.Lines = []ocr.Line{}
	}
	if !simple {
		s := res.Stats
		doc.Stats = &jsonStats{
			ElapsedSeconds:    s.Elapsed.Seconds(),
			TotalDetected:     s.TotalDetected,
			Accepted:          s.Accepted,
			Chars:             s.Chars,
			Words:             s.Words,
			Threshold:         s.Threshold,
			AverageConfidence: s.AverageConfidence,
		}
		if len(res.Lines) != len(res.Accepted) {
			doc.AllDetections = res.Lines
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
