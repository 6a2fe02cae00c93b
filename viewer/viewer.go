// Package viewer tracks page navigation and the geometry of rendered pages.
//
// The viewer shows one page at a time. Page geometry is the coordinate frame
// for every overlay: a placed signature's x/y are pixel offsets from the
// top-left corner of the page as rendered at the current width.
package viewer

import (
	"errors"
	"fmt"

	"seehuhn.de/go/geom/rect"
)

const (
	// FrameInset is subtracted from the container width to obtain the page
	// render width (the frame border on both sides).
	FrameInset = 24.0

	// DefaultRenderWidth is used while the container width is unknown.
	DefaultRenderWidth = 600.0
)

// ErrNoDocument is returned when rendering without a page source.
var ErrNoDocument = errors.New("no document loaded")

// PageSource provides page count and page sizes; it stands in for the
// document rendering engine.
type PageSource interface {
	NumPages() int
	// PageSize returns the displayed page box of a 1-based page in points.
	PageSize(page int) (rect.Rect, error)
}

// Geometry is the rendered size of a page in viewer pixels.
type Geometry struct {
	Page   int // 1-based
	Width  float64
	Height float64
}

// Viewer holds the navigation state and the geometry cache.
// A Viewer is not safe for concurrent use.
type Viewer struct {
	source    PageSource
	pageCount int
	current   int
	width     float64
	heights   map[int]float64
	listeners []func(Geometry)
}

// New returns a viewer on the first page of source. A nil source gives an
// empty viewer that can be loaded later.
func New(source PageSource) *Viewer {
	v := &Viewer{
		current: 1,
		width:   DefaultRenderWidth,
		heights: make(map[int]float64),
	}
	v.Load(source)
	return v
}

// Load replaces the document, resets to page 1 and drops cached heights.
func (v *Viewer) Load(source PageSource) {
	v.source = source
	v.pageCount = 0
	if source != nil {
		v.pageCount = source.NumPages()
	}
	v.current = 1
	clear(v.heights)
}

// PageCount returns the number of pages of the loaded document.
func (v *Viewer) PageCount() int {
	return v.pageCount
}

// Current returns the 1-based current page.
func (v *Viewer) Current() int {
	return v.current
}

// CurrentIndex returns the zero-based current page.
func (v *Viewer) CurrentIndex() int {
	return v.current - 1
}

// Next moves one page forward, staying on the last page.
func (v *Viewer) Next() int {
	return v.GoTo(v.current + 1)
}

// Prev moves one page back, staying on the first page.
func (v *Viewer) Prev() int {
	return v.GoTo(v.current - 1)
}

// GoTo moves to page n, clamped to [1, PageCount]. Without pages the
// current page stays 1.
func (v *Viewer) GoTo(n int) int {
	v.current = max(1, min(n, v.pageCount))
	return v.current
}

// HasNext reports whether Next would change the page.
func (v *Viewer) HasNext() bool {
	return v.current < v.pageCount
}

// HasPrev reports whether Prev would change the page.
func (v *Viewer) HasPrev() bool {
	return v.current > 1
}

// Resize recomputes the render width from the container width. Cached page
// heights are kept as they were measured.
func (v *Viewer) Resize(containerWidth float64) float64 {
	w := containerWidth - FrameInset
	if w <= 0 {
		w = DefaultRenderWidth
	}
	v.width = w
	return w
}

// Width returns the current render width.
func (v *Viewer) Width() float64 {
	return v.width
}

// OnGeometry registers fn to receive the geometry of each rendered page.
func (v *Viewer) OnGeometry(fn func(Geometry)) {
	if fn != nil {
		v.listeners = append(v.listeners, fn)
	}
}

// Render lays out the current page. The page height is measured the first
// time a page renders and reused afterwards.
func (v *Viewer) Render() (Geometry, error) {
	if v.source == nil || v.pageCount == 0 {
		return Geometry{}, ErrNoDocument
	}

	h, ok := v.heights[v.current]
	if !ok {
		box, err := v.source.PageSize(v.current)
		if err != nil {
			return Geometry{}, fmt.Errorf("failed to measure page %d: %w", v.current, err)
		}
		if box.Dx() <= 0 || box.Dy() <= 0 {
			return Geometry{}, fmt.Errorf("page %d has an empty page box", v.current)
		}
		h = v.width * box.Dy() / box.Dx()
		v.heights[v.current] = h
	}

	g := Geometry{Page: v.current, Width: v.width, Height: h}
	for _, fn := range v.listeners {
		fn(g)
	}
	return g, nil
}

// Height returns the cached height of a 1-based page.
func (v *Viewer) Height(page int) (float64, bool) {
	h, ok := v.heights[page]
	return h, ok
}

// Measured reports whether the zero-based page has been rendered.
func (v *Viewer) Measured(pageIndex int) bool {
	_, ok := v.heights[pageIndex+1]
	return ok
}

// Geometry returns the geometry of a zero-based page from the cache. The
// height is zero for pages that have not been rendered yet.
func (v *Viewer) Geometry(pageIndex int) Geometry {
	return Geometry{Page: pageIndex + 1, Width: v.width, Height: v.heights[pageIndex+1]}
}
