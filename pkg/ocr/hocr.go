package ocr

import (
	"github.com/gardar/ocrbatch/pkg/hocr"
)

// LinesFromHOCR flattens every text line of every page into recognition
// lines. Lines without any text are dropped.
func LinesFromHOCR(doc hocr.HOCR) []Line {
	var lines []Line
	for _, page := range doc.Pages {
		for _, l := range page.Lines {
			text := l.Text()
			if text == "" {
				continue
			}
			conf := l.MeanConfidence() / 100
			conf = max(0, min(1, conf))
			lines = append(lines, Line{
				Text:       text,
				Confidence: conf,
				Box:        boxPolygon(l.BBox),
			})
		}
	}
	return lines
}

func boxPolygon(b hocr.BoundingBox) []Point {
	if b.IsZero() {
		return nil
	}
	return []Point{{b.X1, b.Y1}, {b.X2, b.Y1}, {b.X2, b.Y2}, {b.X1, b.Y2}}
}
