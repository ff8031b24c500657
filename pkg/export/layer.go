package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/ocrbatch/pkg/ocr"
	"github.com/gardar/ocrbatch/pkg/pipeline"
)

// LayerName is the base name of the optional content group holding the
// recognized text. The page number is appended.
const LayerName = "OCR Text"

// mmPerPixel converts image pixels to millimetres at 96 dpi.
const mmPerPixel = 25.4 / 96

// pdfImage returns data in a form fpdf can embed together with its type.
// Formats fpdf does not read are re-encoded as PNG.
func pdfImage(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image config: %w", err)
	}
	switch format {
	case "png", "jpeg", "gif":
		return data, strings.ToUpper(format), nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "PNG", nil
}

// addImagePage appends a page sized to the source image, draws the image
// and puts the accepted lines on an invisible text layer above it. It
// returns the number of lines whose text had to be altered to fit the font.
func addImagePage(pdf *fpdf.Fpdf, res *pipeline.Result, data []byte, font pdfFont) (int, error) {
	data, imageType, err := pdfImage(data)
	if err != nil {
		return 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	w, h := float64(cfg.Width)*mmPerPixel, float64(cfg.Height)*mmPerPixel

	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	pageNum := pdf.PageNo()

	name := fmt.Sprintf("source%d", pageNum)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

	transform := func(x, y float64) (float64, float64) {
		return x * mmPerPixel, y * mmPerPixel
	}
	return drawOCRLayer(pdf, res.Accepted, pageNum, transform, font), nil
}

// drawOCRLayer draws the lines onto a hidden layer of the current page.
func drawOCRLayer(pdf *fpdf.Fpdf, lines []ocr.Line, pageNum int,
	transform func(x, y float64) (float64, float64), font pdfFont) int {
	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", LayerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(font.Family, "", 10)
	pdf.SetAlpha(0.0, "Normal")

	altered := 0
	for _, l := range lines {
		if drawLine(pdf, l, transform, font) {
			altered++
		}
	}

	pdf.SetAlpha(1.0, "Normal")
	pdf.EndLayer()
	return altered
}

// drawLine renders the text of one line scaled to the width of its box. It
// reports whether the text was altered by transcoding.
func drawLine(pdf *fpdf.Fpdf, l ocr.Line, transform func(x, y float64) (float64, float64), font pdfFont) bool {
	minX, minY, maxX, _, ok := l.Bounds()
	if !ok || strings.TrimSpace(l.Text) == "" {
		return false
	}
	x, y := transform(minX, minY)
	x2, _ := transform(maxX, minY)
	width := x2 - x

	txt := font.Encode(l.Text)
	altered := font.encode != nil && strings.ContainsRune(txt, '?') && !strings.ContainsRune(l.Text, '?')

	const baseSize = 10.0
	pdf.SetFontSize(baseSize)
	if strWidth := pdf.GetStringWidth(txt); strWidth > 0 && width > 0 {
		pdf.SetFontSize(baseSize * width / strWidth)
	}
	_, unitSize := pdf.GetFontSize()
	pdf.Text(x, y+unitSize*font.AscentRatio, txt)
	pdf.SetFontSize(baseSize)
	return altered
}
