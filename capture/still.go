package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
)

// Still is a surface holding a prepared signature image, such as a scan.
// It is never empty and Clear has no effect, so the same image can be
// committed repeatedly.
type Still struct {
	img image.Image
}

// NewStill wraps img as a surface.
func NewStill(img image.Image) *Still {
	return &Still{img: img}
}

// ReadStill decodes a PNG or JPEG signature.
func ReadStill(r io.Reader) (*Still, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature image: %w", err)
	}
	return NewStill(img), nil
}

// OpenStill reads a signature image from disk.
func OpenStill(path string) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadStill(f)
}

func (s *Still) IsEmpty() bool               { return s.img == nil }
func (s *Still) Image() (image.Image, error) { return s.img, nil }
func (s *Still) Clear()                      {}
