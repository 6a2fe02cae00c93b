// Package pdfpage resolves page dictionaries and their geometry.
package pdfpage

import (
	"errors"
	"fmt"

	pdflib "github.com/digitorus/pdf"
	"seehuhn.de/go/geom/rect"
)

// Letter is used when neither the page nor any ancestor defines a MediaBox.
var Letter = rect.Rect{LLx: 0, LLy: 0, URx: 612, URy: 792}

// ErrPageNotFound is returned when a page number does not resolve to a page
// dictionary.
var ErrPageNotFound = errors.New("page not found")

// Find returns the page dictionary for a 1-based page number.
func Find(r *pdflib.Reader, pageNum int) (pdflib.Value, error) {
	if r == nil {
		return pdflib.Value{}, errors.New("no reader available")
	}
	if pageNum < 1 || pageNum > r.NumPage() {
		return pdflib.Value{}, fmt.Errorf("%w: %d out of range (1-%d)", ErrPageNotFound, pageNum, r.NumPage())
	}
	page := r.Page(pageNum)
	if page.V.IsNull() {
		return pdflib.Value{}, fmt.Errorf("%w: %d", ErrPageNotFound, pageNum)
	}
	return page.V, nil
}

// inherited walks up the /Parent chain until key is present.
func inherited(page pdflib.Value, key string) pdflib.Value {
	v := page
	for depth := 0; depth < 64 && v.Kind() == pdflib.Dict; depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdflib.Value{}
}

// MediaBox returns the normalised media box of a page, honouring
// inheritance through the page tree.
func MediaBox(page pdflib.Value) rect.Rect {
	mb := inherited(page, "MediaBox")
	if mb.Kind() != pdflib.Array || mb.Len() < 4 {
		return Letter
	}
	x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
	x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return Letter
	}
	return rect.Rect{LLx: x0, LLy: y0, URx: x1, URy: y1}
}

// Rotation returns the inherited /Rotate value normalised to 0, 90, 180
// or 270.
func Rotation(page pdflib.Value) int {
	r := int(inherited(page, "Rotate").Int64()) % 360
	if r < 0 {
		r += 360
	}
	return r - r%90
}

// DisplaySize is the page size as a viewer shows it, in points: the media
// box with the axes swapped for quarter-turn rotations.
func DisplaySize(page pdflib.Value) (width, height float64) {
	box := MediaBox(page)
	switch Rotation(page) {
	case 90, 270:
		return box.Dy(), box.Dx()
	default:
		return box.Dx(), box.Dy()
	}
}
