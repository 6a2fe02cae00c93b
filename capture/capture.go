// Package capture turns a drawing surface into a committed signature image.
//
// The drawing surface itself is a capability: anything that can report
// whether it is empty, produce a raster and clear itself can back a Capture.
// Pad is the built-in implementation.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/digitorus/sigplace/images"
)

// ErrEmptySignature is returned by Commit when nothing has been drawn. Its
// message is meant to be shown to the user as is.
var ErrEmptySignature = errors.New("please sign before continuing")

// Surface is a freehand drawing surface.
type Surface interface {
	IsEmpty() bool
	Image() (image.Image, error)
	Clear()
}

// Capture wraps a Surface and produces signature images from it.
type Capture struct {
	surface Surface
	encoder png.Encoder
	commits int
}

// New returns a Capture over surface. A nil surface gets a default Pad.
func New(surface Surface) *Capture {
	if surface == nil {
		surface = NewPad(DefaultPadWidth, DefaultPadHeight)
	}
	return &Capture{
		surface: surface,
		encoder: png.Encoder{CompressionLevel: png.BestCompression},
	}
}

// Surface returns the underlying drawing surface.
func (c *Capture) Surface() Surface {
	return c.surface
}

// Commit encodes the current drawing as PNG and clears the surface.
// An empty surface yields ErrEmptySignature and is left untouched.
func (c *Capture) Commit() (*images.Image, error) {
	if c.surface.IsEmpty() {
		return nil, ErrEmptySignature
	}

	raster, err := c.surface.Image()
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize signature: %w", err)
	}

	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, raster); err != nil {
		return nil, fmt.Errorf("failed to encode signature: %w", err)
	}

	c.commits++
	img, err := images.New(fmt.Sprintf("signature-%d", c.commits), buf.Bytes())
	if err != nil {
		return nil, err
	}

	c.surface.Clear()
	return img, nil
}

// Reset clears the surface unconditionally.
func (c *Capture) Reset() {
	c.surface.Clear()
}
