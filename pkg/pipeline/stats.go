package pipeline

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gardar/ocrbatch/pkg/ocr"
)

// Stats summarizes the recognition of one image.
type Stats struct {
	Elapsed           time.Duration `json:"elapsed"`
	TotalDetected     int           `json:"total_detected"`
	Accepted          int           `json:"accepted"`
	Chars             int           `json:"chars"`
	Words             int           `json:"words"`
	Threshold         float64       `json:"threshold"`
	AverageConfidence float64       `json:"average_confidence"`
}

// Filter returns the lines whose confidence reaches threshold, in order.
func Filter(lines []ocr.Line, threshold float64) []ocr.Line {
	accepted := make([]ocr.Line, 0, len(lines))
	for _, l := range lines {
		if l.Confidence >= threshold {
			accepted = append(accepted, l)
		}
	}
	return accepted
}

// JoinText joins the text of lines with newlines.
func JoinText(lines []ocr.Line) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// ComputeStats derives the statistics of one recognition.
func ComputeStats(all, accepted []ocr.Line, threshold float64, elapsed time.Duration) Stats {
	text := JoinText(accepted)
	s := Stats{
		Elapsed:       elapsed,
		TotalDetected: len(all),
		Accepted:      len(accepted),
		Chars:         utf8.RuneCountInString(text),
		Words:         len(strings.Fields(text)),
		Threshold:     threshold,
	}
	if len(accepted) > 0 {
		var sum float64
		for _, l := range accepted {
			sum += l.Confidence
		}
		s.AverageConfidence = sum / float64(len(accepted))
	}
	return s
}

// Rejected reports how many detected lines fell below the threshold.
func (s Stats) Rejected() int {
	return s.TotalDetected - s.Accepted
}
