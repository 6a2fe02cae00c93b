package stamp

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"io"

	"github.com/digitorus/sigplace/export"
	"github.com/digitorus/sigplace/images"
)

func decodeBundleImage(b export.Bundle) (*images.Image, error) {
	if b.SignatureBase64 == "" {
		return nil, images.ErrEmptyImage
	}
	return images.Decode(b.ID, b.SignatureBase64)
}

// addImage writes img as an RGB image XObject, with a soft mask when the
// image has transparency, and returns the object number.
func (ctx *context) addImage(img *images.Image) (uint32, error) {
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	level := ctx.opts.compressLevel
	compress := level != zlib.NoCompression

	var rgbBuf, alphaBuf bytes.Buffer
	var rgbWriter, alphaWriter io.Writer = &rgbBuf, &alphaBuf
	var zlibRGB, zlibAlpha *zlib.Writer
	if compress {
		if zlibRGB, err = zlib.NewWriterLevel(&rgbBuf, level); err != nil {
			return 0, err
		}
		if zlibAlpha, err = zlib.NewWriterLevel(&alphaBuf, level); err != nil {
			return 0, err
		}
		rgbWriter, alphaWriter = zlibRGB, zlibAlpha
	}

	hasAlpha := false
	row := make([]byte, 0, width*3)
	alphaRow := make([]byte, 0, width)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row, alphaRow = row[:0], alphaRow[:0]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			// RGBA() is premultiplied; the soft mask carries the alpha.
			if a > 0 {
				r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
			}
			row = append(row, uint8(r>>8), uint8(g>>8), uint8(b>>8))
			alphaRow = append(alphaRow, a8)
		}
		if _, err := rgbWriter.Write(row); err != nil {
			return 0, err
		}
		if _, err := alphaWriter.Write(alphaRow); err != nil {
			return 0, err
		}
	}
	if compress {
		if err := zlibRGB.Close(); err != nil {
			return 0, err
		}
		if err := zlibAlpha.Close(); err != nil {
			return 0, err
		}
	}

	filter := ""
	if compress {
		filter = " /Filter /FlateDecode"
	}

	var smaskID uint32
	if hasAlpha {
		var smask bytes.Buffer
		fmt.Fprintf(&smask, "<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8%s /Length %d >>\nstream\n",
			width, height, filter, alphaBuf.Len())
		smask.Write(alphaBuf.Bytes())
		smask.WriteString("\nendstream")
		if smaskID, err = ctx.addObject(smask.Bytes()); err != nil {
			return 0, err
		}
	}

	var obj bytes.Buffer
	obj.WriteString("<< /Type /XObject /Subtype /Image\n")
	fmt.Fprintf(&obj, "  /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8\n", width, height)
	if smaskID != 0 {
		fmt.Fprintf(&obj, "  /SMask %d 0 R\n", smaskID)
	}
	if img.Format == "jpeg" && !hasAlpha {
		fmt.Fprintf(&obj, "  /Filter /DCTDecode /Length %d >>\nstream\n", len(img.Data))
		obj.Write(img.Data)
	} else {
		fmt.Fprintf(&obj, " %s /Length %d >>\nstream\n", filter, rgbBuf.Len())
		obj.Write(rgbBuf.Bytes())
	}
	obj.WriteString("\nendstream")

	return ctx.addObject(obj.Bytes())
}
