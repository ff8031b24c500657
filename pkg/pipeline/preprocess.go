package pipeline

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// PreprocessOptions control the image cleanup done before recognition.
type PreprocessOptions struct {
	Enabled  bool
	Contrast float64 // percentage in -100..100, 0 leaves contrast unchanged
	Denoise  bool
}

// Preprocess applies EXIF orientation, converts to grayscale, adjusts the
// contrast and optionally smooths noise. The result is PNG encoded.
func Preprocess(data []byte, opts PreprocessOptions) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image for preprocessing: %w", err)
	}

	out := imaging.Grayscale(img)
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	if opts.Denoise {
		// blur out speckle, then restore glyph edges
		out = imaging.Blur(out, 0.6)
		out = imaging.Sharpen(out, 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}

// Orient applies the EXIF orientation of data and returns it PNG encoded,
// keeping the colors. Its geometry matches what Preprocess hands the engine.
func Orient(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image for orientation: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding oriented image: %w", err)
	}
	return buf.Bytes(), nil
}
