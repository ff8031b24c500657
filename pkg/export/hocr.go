package export

import (
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gardar/ocrbatch/pkg/hocr"
	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pipeline"
)

// buildHOCR converts the accepted lines into a single page hOCR document.
// Engines only report line boxes, so word boxes are laid out in proportion
// to their rune offsets within the line.
func buildHOCR(res *pipeline.Result, lang string) hocr.HOCR {
	page := hocr.Page{
		ID:         "page_1",
		PageNumber: 1,
		ImageName:  filepath.Base(res.Source),
		Lang:       lang,
		BBox:       hocr.NewBoundingBox(0, 0, float64(res.Width), float64(res.Height)),
	}
	for _, l := range res.Accepted {
		page.Lines = append(page.Lines, hocrLine(l, lang))
	}
	return hocr.HOCR{
		Title:    "OCR result for " + filepath.Base(res.Source),
		Language: lang,
		Metadata: map[string]string{
			"ocr-system":       "ocrbatch/" + res.Engine,
			"ocr-capabilities": "ocr_page ocr_line ocrx_word",
		},
		Pages: []hocr.Page{page},
	}
}

func hocrLine(l ocr.Line, lang string) hocr.Line {
	minX, minY, maxX, maxY, _ := l.Bounds()
	box := hocr.NewBoundingBox(minX, minY, maxX, maxY)
	conf := l.Confidence * 100
	line := hocr.Line{Lang: lang, BBox: box, Confidence: conf}

	words := strings.Fields(l.Text)
	total := utf8.RuneCountInString(strings.Join(words, " "))
	offset := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		wb := box
		if total > 0 {
			wb.X1 = minX + box.Width()*float64(offset)/float64(total)
			wb.X2 = minX + box.Width()*float64(offset+n)/float64(total)
		}
		line.Words = append(line.Words, hocr.Word{Text: w, BBox: wb, Confidence: conf, Lang: lang})
		offset += n + 1
	}
	return line
}

func writeHOCR(w io.Writer, res *pipeline.Result, lang string) error {
	doc := buildHOCR(res, lang)
	data, err := hocr.Generate(&doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
