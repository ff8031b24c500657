package sample

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	framePadX      = 20
	framePadY      = 10
	frameThickness = 2
)

var frameColor = color.Gray{Y: 128}

// loadFace opens the font at path, the first font of a .ttc collection, or
// the built-in Go font when path is empty.
func loadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}

	var f *opentype.Font
	var err error
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		var coll *opentype.Collection
		if coll, err = opentype.ParseCollection(data); err == nil {
			f, err = coll.Font(0)
		}
	} else {
		f, err = opentype.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", path, err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Render draws text centered in black on a white width x height canvas,
// framed by a gray rectangle, and returns it PNG encoded. Lines separated
// by "\n" are stacked and centered as a block.
func Render(text string, width, height int, fontSize float64, fontPath string) ([]byte, error) {
	face, err := loadFace(fontPath, fontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	lines := strings.Split(text, "\n")
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	lineHeight := (m.Ascent + m.Descent).Ceil()
	step := max(lineHeight, int(fontSize*1.25))
	block := step*(len(lines)-1) + lineHeight

	widths := make([]int, len(lines))
	maxWidth := 0
	for i, l := range lines {
		widths[i] = font.MeasureString(face, l).Ceil()
		maxWidth = max(maxWidth, widths[i])
	}

	top := (height - block) / 2
	left := (width - maxWidth) / 2
	frame := image.Rect(left-framePadX, top-framePadY, left+maxWidth+framePadX, top+block+framePadY)
	drawFrame(img, frame)

	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	for i, l := range lines {
		x := (width - widths[i]) / 2
		y := top + i*step + ascent
		d.Dot = fixed.P(x, y)
		d.DrawString(l)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawFrame(img draw.Image, r image.Rectangle) {
	c := image.NewUniform(frameColor)
	t := frameThickness
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(img, edge, c, image.Point{}, draw.Src)
	}
}
