package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pipeline"
)

func writeTXT(w io.Writer, res *pipeline.Result, simple bool) error {
	var b strings.Builder

	b.WriteString("=== OCR Result ===\n")
	fmt.Fprintf(&b, "Source file: %s\n", filepath.Base(res.Source))
	fmt.Fprintf(&b, "Processed at: %s\n", res.ProcessedAt.Format(timeLayout))
	if !simple {
		fmt.Fprintf(&b, "Engine: %s\n", res.Engine)
	}
	b.WriteString("\n")

	if !simple {
		b.WriteString("=== Statistics ===\n")
		for _, kv := range statLines(res.Stats) {
			fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
		}
		b.WriteString("\n")
	}

	b.WriteString("=== Recognized Text (filtered) ===\n")
	b.WriteString(res.Text)
	b.WriteString("\n")

	if !simple {
		b.WriteString("\n=== Details ===\n")
		for i, l := range res.Accepted {
			writeTXTLine(&b, i, l)
			if len(l.Box) > 0 {
				fmt.Fprintf(&b, "  Box: %s\n", formatBox(l.Box))
			}
			b.WriteString("\n")
		}

		if len(res.Lines) != len(res.Accepted) {
			b.WriteString("=== All Detections (including low confidence) ===\n")
			for i, l := range res.Lines {
				writeTXTLine(&b, i, l)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTXTLine(b *strings.Builder, i int, l ocr.Line) {
	fmt.Fprintf(b, "Line %d: '%s' (confidence: %.3f)\n", i+1, l.Text, l.Confidence)
}

func formatBox(box []ocr.Point) string {
	pts := make([]string, len(box))
	for i, p := range box {
		pts[i] = fmt.Sprintf("(%g, %g)", p.X, p.Y)
	}
	return "[" + strings.Join(pts, ", ") + "]"
}
