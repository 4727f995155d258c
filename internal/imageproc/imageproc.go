// Package imageproc normalizes uploaded plant photos before they are stored or
// sent for inference.
package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	MaxWidth    = 800
	MaxHeight   = 600
	JPEGQuality = 85

	// MaxInputPixels caps the declared size of an upload. Decoders allocate
	// the full pixel buffer from the header alone.
	MaxInputPixels = 0x3FFF * 0x3FFF
)

// ProcessingError reports an image that could not be decoded or re-encoded.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return "Failed to process image: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Normalize decodes src, fits it inside MaxWidth x MaxHeight keeping the
// aspect ratio and re-encodes it as JPEG. Smaller images keep their size.
func Normalize(src io.Reader) ([]byte, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(src, &head))
	if err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("decode: %w", err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return nil, &ProcessingError{Err: fmt.Errorf("decode: image dimensions %dx%d out of range", cfg.Width, cfg.Height)}
	}

	// The header bytes consumed above are replayed ahead of the rest.
	img, err := imaging.Decode(io.MultiReader(&head, src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("decode: %w", err)}
	}

	// Fit returns a copy unchanged when the image already fits.
	img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("encode: %w", err)}
	}

	return buf.Bytes(), nil
}

// NormalizeFile normalizes the image stored at path.
func NormalizeFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ProcessingError{Err: err}
	}
	defer f.Close()

	return Normalize(f)
}

// DataURL renders a stored JPEG as a data URL. Empty input yields nil so the
// JSON field encodes as null.
func DataURL(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	s := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)
	return &s
}
