// Package images provides the raster payload carried by placed signatures.
//
// A committed signature is kept as encoded bytes (PNG unless loaded from
// elsewhere) together with its pixel size and a content hash. The payload
// travels to export consumers as base64, optionally wrapped in a data URL.
package images

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG format
	_ "image/png"  // register PNG format
	"strings"
)

// Image represents an encoded raster image.
type Image struct {
	Name   string // Identifier for the image
	Data   []byte // Raw image data (PNG or JPEG)
	Hash   string // SHA256 hash of image data for deduplication
	Format string // Registered format name, "png" or "jpeg"
	Width  int    // Pixel width
	Height int    // Pixel height
}

// ErrEmptyImage is returned when no image data is supplied.
var ErrEmptyImage = errors.New("empty image data")

// New wraps encoded image data, reading its dimensions from the header.
func New(name string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image configuration: %w", err)
	}
	h := sha256.Sum256(data)
	return &Image{
		Name:   name,
		Data:   data,
		Hash:   hex.EncodeToString(h[:]),
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// MIMEType returns the media type of the encoded data.
func (img *Image) MIMEType() string {
	if img.Format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

// Base64 returns the standard base64 encoding of the image data.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the image as a data URL, e.g. "data:image/png;base64,...".
func (img *Image) DataURL() string {
	return "data:" + img.MIMEType() + ";base64," + img.Base64()
}

// ScaledHeight returns the height the image takes when drawn at width,
// keeping its aspect ratio.
func (img *Image) ScaledHeight(width float64) float64 {
	if img.Width == 0 {
		return 0
	}
	return width * float64(img.Height) / float64(img.Width)
}

// Decode parses a base64 payload or data URL back into an Image.
func Decode(name, payload string) (*Image, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		i := strings.Index(payload, ",")
		if i < 0 || !strings.HasSuffix(payload[:i], ";base64") {
			return nil, errors.New("unsupported data URL encoding")
		}
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return New(name, data)
}
