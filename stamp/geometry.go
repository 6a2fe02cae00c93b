package stamp

import (
	"fmt"
	"math"

	"github.com/digitorus/pdf"
	"github.com/digitorus/sigplace/export"
	"github.com/digitorus/sigplace/images"
	"github.com/digitorus/sigplace/internal/pdfpage"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// placement is where a bundle lands in PDF user space.
type placement struct {
	// rect is the annotation rectangle in user space.
	rect rect.Rect
	// width and height are the upright size of the signature in points.
	width, height float64
	// form maps the upright appearance into the rotated page.
	form matrix.Matrix
}

// placeBundle converts the bundle's viewer pixels into user space of page.
// Viewer coordinates have their origin at the top-left corner of the page
// as displayed, which for rotated pages is not the media box origin.
func placeBundle(b export.Bundle, page pdf.Value, img *images.Image) (placement, error) {
	if b.ViewportWidth <= 0 {
		return placement{}, fmt.Errorf("invalid viewport width %d", b.ViewportWidth)
	}

	box := pdfpage.MediaBox(page)
	rot := pdfpage.Rotation(page)
	displayW, _ := pdfpage.DisplaySize(page)
	scale := displayW / float64(b.ViewportWidth)

	sigW := float64(b.SignatureWidth)
	if sigW <= 0 {
		sigW = export.SignatureWidth
	}
	sigH := float64(b.SignatureHeight)
	if sigH <= 0 {
		sigH = img.ScaledHeight(sigW)
	}
	if sigH <= 0 {
		return placement{}, fmt.Errorf("signature image %s has no size", img.Name)
	}

	x0, y0 := float64(b.CoordX)*scale, float64(b.CoordY)*scale
	x1, y1 := x0+sigW*scale, y0+sigH*scale

	m := displayToUser(rot, box)
	ax, ay := apply(m, x0, y0)
	bx, by := apply(m, x1, y1)

	return placement{
		rect: rect.Rect{
			LLx: math.Min(ax, bx), LLy: math.Min(ay, by),
			URx: math.Max(ax, bx), URy: math.Max(ay, by),
		},
		width:  sigW * scale,
		height: sigH * scale,
		form:   formMatrix(rot),
	}, nil
}

// displayToUser maps display coordinates (origin top-left, y down, in
// points) to user space for a page shown with the given rotation.
func displayToUser(rot int, box rect.Rect) matrix.Matrix {
	w, h := box.Dx(), box.Dy()
	var m matrix.Matrix
	switch rot {
	case 90:
		m = matrix.Matrix{0, 1, 1, 0, 0, 0}
	case 180:
		m = matrix.Matrix{-1, 0, 0, 1, w, 0}
	case 270:
		m = matrix.Matrix{0, -1, -1, 0, w, h}
	default:
		m = matrix.Matrix{1, 0, 0, -1, 0, h}
	}
	m[4] += box.LLx
	m[5] += box.LLy
	return m
}

// formMatrix turns the appearance counter-clockwise by rot so it reads
// upright once the viewer applies the page rotation.
func formMatrix(rot int) matrix.Matrix {
	switch rot {
	case 90:
		return matrix.Matrix{0, 1, -1, 0, 0, 0}
	case 180:
		return matrix.Matrix{-1, 0, 0, -1, 0, 0}
	case 270:
		return matrix.Matrix{0, -1, 1, 0, 0, 0}
	default:
		return matrix.Identity
	}
}

func apply(m matrix.Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}
