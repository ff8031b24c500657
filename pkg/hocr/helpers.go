package hocr

import (
	"strconv"
	"strings"
)

// Text joins the words of the line with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// MeanConfidence returns the line confidence on a 0-100 scale. When the line
// carries no confidence of its own the mean of its word confidences is used.
func (l Line) MeanConfidence() float64 {
	if l.Confidence > 0 || len(l.Words) == 0 {
		return l.Confidence
	}
	var sum float64
	var n int
	for _, w := range l.Words {
		if w.Text == "" {
			continue
		}
		sum += w.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title has no usable bbox property
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(bbox[i], 64)
		if err != nil {
			return nil
		}
		v[i] = f
	}
	result := NewBoundingBox(v[0], v[1], v[2], v[3])
	return &result
}

// FormatBoundingBox renders a box as an hOCR 'bbox' property.
func FormatBoundingBox(b BoundingBox) string {
	return "bbox " + strconv.Itoa(int(b.X1+0.5)) + " " + strconv.Itoa(int(b.Y1+0.5)) + " " +
		strconv.Itoa(int(b.X2+0.5)) + " " + strconv.Itoa(int(b.Y2+0.5))
}
