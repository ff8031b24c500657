package export

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrbatch/pkg/fonts"
	"github.com/gardar/ocrbatch/pkg/pipeline"
)

// pdfFont is the font family used for a document together with the
// transcoding its text needs.
type pdfFont struct {
	Family      string
	AscentRatio float64 // vertical positioning ratio for the text layer
	encode      func(string) string
}

func (f pdfFont) Encode(s string) string {
	if f.encode == nil {
		return s
	}
	return f.encode(s)
}

// coreFont is used when no TrueType font could be loaded. Text is
// transcoded to ISO-8859-1, unknown runes become '?'.
var coreFont = pdfFont{
	Family:      "Helvetica",
	AscentRatio: 0.718,
	encode:      latin1,
}

func latin1(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			b = append(b, c)
		} else {
			b = append(b, '?')
		}
	}
	return string(b)
}

// loadFont registers the first usable TrueType font with pdf and falls back
// to the core Helvetica font.
func loadFont(pdf *fpdf.Fpdf, override string, log *slog.Logger) pdfFont {
	path := fonts.Find(override, ".ttf")
	if override != "" && path != override {
		log.Warn("Configured font is missing or not a .ttf file", "font_path", override)
	}
	if path == "" {
		log.Warn("No TrueType font found, non Latin-1 text will be replaced", "fallback", coreFont.Family)
		return coreFont
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Could not read font", "font", path, "err", err)
		return coreFont
	}
	pdf.AddUTF8FontFromBytes("ocr", "", data)
	pdf.AddUTF8FontFromBytes("ocr", "B", data)
	// a font that fails to parse is skipped silently, SetFont reports it
	pdf.SetFont("ocr", "", 12)
	if pdf.Err() {
		log.Warn("Could not load font", "font", path, "err", pdf.Error())
		pdf.ClearError()
		return coreFont
	}
	log.Debug("Using font", "font", path)
	return pdfFont{Family: "ocr", AscentRatio: 0.8}
}

func writePDF(w io.Writer, res *pipeline.Result, opts Options) error {
	log := opts.logger()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("OCR Result: "+filepath.Base(res.Source), true)
	pdf.SetCreator("ocrbatch", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	font := loadFont(pdf, opts.FontPath, log)

	pdf.AddPage()
	pdf.SetFont(font.Family, "B", 18)
	pdf.CellFormat(0, 12, font.Encode("OCR Result"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(font.Family, "", 11)
	info := []string{
		"Source file: " + filepath.Base(res.Source),
		"Processed at: " + res.ProcessedAt.Format(timeLayout),
	}
	if !opts.Simple {
		for _, kv := range statLines(res.Stats) {
			info = append(info, kv[0]+": "+kv[1])
		}
	}
	for _, line := range info {
		pdf.MultiCell(0, 6, font.Encode(line), "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont(font.Family, "B", 14)
	pdf.CellFormat(0, 10, font.Encode("Recognized Text"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(font.Family, "", 12)
	for _, line := range strings.Split(res.Text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.MultiCell(0, 7, font.Encode(line), "", "L", false)
		pdf.Ln(2)
	}

	if opts.EmbedImage {
		data, err := sourceImage(res)
		if err != nil {
			return err
		}
		skipped, err := addImagePage(pdf, res, data, font)
		if err != nil {
			return err
		}
		if skipped > 0 {
			log.Warn("Some characters could not be encoded in the text layer", "lines", skipped)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}

// sourceImage reads the image a result was recognized from, in the
// orientation the engine saw.
func sourceImage(res *pipeline.Result) ([]byte, error) {
	data, err := os.ReadFile(res.Source)
	if err != nil {
		return nil, fmt.Errorf("reading source image: %w", err)
	}
	if res.Oriented {
		return pipeline.Orient(data)
	}
	return data, nil
}
