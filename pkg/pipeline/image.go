package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotImage is returned for files whose content is not a supported image.
	ErrNotImage = errors.New("not a supported image")
	// ErrImageTooLarge is returned for files above the configured size limit.
	ErrImageTooLarge = errors.New("image too large")
)

// Image is a loaded input file.
type Image struct {
	Path   string
	Data   []byte
	MIME   string
	Format string // decoder name, e.g. "png"
	Width  int
	Height int
}

// LoadImage reads path and checks that it holds a decodable image no larger
// than maxBytes. A maxBytes of 0 disables the size check.
func LoadImage(path string, maxBytes uint64) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if maxBytes > 0 && uint64(info.Size()) > maxBytes {
		return nil, fmt.Errorf("%w: %s is %s, limit is %s", ErrImageTooLarge, path,
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(maxBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeImage(path, data)
}

func decodeImage(path string, data []byte) (*Image, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s has type %s", ErrNotImage, path, mtype.String())
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%s): %v", ErrNotImage, path, mtype.String(), err)
	}
	return &Image{
		Path:   path,
		Data:   data,
		MIME:   mtype.String(),
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
