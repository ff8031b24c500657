package hocr

// HOCR represents the entire hOCR document structure
type HOCR struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system, ocr-capabilities and friends
	Pages    []Page
}

// Page is one page of recognized text.
// Corresponds to hOCR element with class: 'ocr_page'
type Page struct {
	ID         string
	PageNumber int
	ImageName  string
	Lang       string
	BBox       BoundingBox
	Lines      []Line
}

// Line is a single line of text, regardless of how deep it was nested
// in areas and paragraphs.
// Corresponds to hOCR elements with class 'ocr_line', 'ocr_header',
// 'ocr_caption' and 'ocr_textfloat'.
type Line struct {
	ID         string
	Lang       string
	BBox       BoundingBox
	Baseline   string
	Confidence float64 // Line confidence (0-100), zero when unknown
	Words      []Word
}

// Word is a recognized word with bounding box.
// Corresponds to hOCR element with class: 'ocrx_word'
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // Recognition confidence (0-100)
	Lang       string
}

// BoundingBox represents a rectangle in image pixel coordinates
type BoundingBox struct {
	X1 float64 // Left
	Y1 float64 // Top
	X2 float64 // Right
	Y2 float64 // Bottom
}

// NewBoundingBox creates a bounding box from the x1, y1, x2, y2 values
// found in an hOCR 'bbox' property.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// IsZero reports whether the box was never set.
func (b BoundingBox) IsZero() bool { return b == BoundingBox{} }
