package capture

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

const (
	// DefaultPadWidth and DefaultPadHeight match the drawing panel of the
	// editor, in pixels.
	DefaultPadWidth  = 400
	DefaultPadHeight = 192

	// DefaultPenWidth is the stroke width in pixels.
	DefaultPenWidth = 2.5

	// segments used to approximate round caps and joins
	capSegments = 16
)

// DefaultInk is a ballpoint-like blue.
var DefaultInk = color.RGBA{R: 51, G: 51, B: 153, A: 255}

// Point is a position on the pad in pixels, top-left origin.
type Point struct {
	X, Y float64
}

// Pad is a freehand drawing surface. Strokes are recorded as polylines and
// rasterized on demand.
type Pad struct {
	width, height int
	penWidth      float64
	ink           color.Color

	strokes [][]Point
	open    bool
}

// PadOption configures a Pad.
type PadOption func(*Pad)

// WithPenWidth sets the stroke width in pixels.
func WithPenWidth(w float64) PadOption {
	return func(p *Pad) {
		if w > 0 {
			p.penWidth = w
		}
	}
}

// WithInk sets the stroke colour.
func WithInk(c color.Color) PadOption {
	return func(p *Pad) {
		if c != nil {
			p.ink = c
		}
	}
}

// NewPad creates an empty pad of the given pixel size. Non-positive sizes
// fall back to the defaults.
func NewPad(width, height int, opts ...PadOption) *Pad {
	if width <= 0 {
		width = DefaultPadWidth
	}
	if height <= 0 {
		height = DefaultPadHeight
	}
	p := &Pad{
		width:    width,
		height:   height,
		penWidth: DefaultPenWidth,
		ink:      DefaultInk,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the pad dimensions in pixels.
func (p *Pad) Size() (width, height int) {
	return p.width, p.height
}

// BeginStroke starts a new stroke at (x, y).
func (p *Pad) BeginStroke(x, y float64) {
	p.strokes = append(p.strokes, []Point{{x, y}})
	p.open = true
}

// LineTo extends the current stroke. Without an open stroke it starts one.
func (p *Pad) LineTo(x, y float64) {
	if !p.open {
		p.BeginStroke(x, y)
		return
	}
	last := &p.strokes[len(p.strokes)-1]
	*last = append(*last, Point{x, y})
}

// EndStroke closes the current stroke.
func (p *Pad) EndStroke() {
	p.open = false
}

// Stroke records a complete stroke through the given points.
func (p *Pad) Stroke(points ...Point) {
	if len(points) == 0 {
		return
	}
	p.BeginStroke(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.EndStroke()
}

// Strokes returns a copy of the recorded strokes.
func (p *Pad) Strokes() [][]Point {
	out := make([][]Point, len(p.strokes))
	for i, s := range p.strokes {
		out[i] = append([]Point(nil), s...)
	}
	return out
}

// IsEmpty reports whether nothing has been drawn.
func (p *Pad) IsEmpty() bool {
	return len(p.strokes) == 0
}

// Clear removes all strokes.
func (p *Pad) Clear() {
	p.strokes = nil
	p.open = false
}

// Image rasterizes the strokes onto a transparent canvas of the pad size.
func (p *Pad) Image() (image.Image, error) {
	if p.width <= 0 || p.height <= 0 {
		return nil, errors.New("pad has no area")
	}
	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	if p.IsEmpty() {
		return dst, nil
	}

	z := vector.NewRasterizer(p.width, p.height)
	r := p.penWidth / 2
	for _, s := range p.strokes {
		for i, pt := range s {
			// Round caps and joins. Every sub-path is wound the same way so
			// overlapping shapes accumulate instead of cancelling out.
			disc(z, pt, r)
			if i > 0 {
				segment(z, s[i-1], pt, r)
			}
		}
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(p.ink), image.Point{})
	return dst, nil
}

func disc(z *vector.Rasterizer, c Point, r float64) {
	for k := 0; k <= capSegments; k++ {
		theta := -2 * math.Pi * float64(k) / capSegments
		x := float32(c.X + r*math.Cos(theta))
		y := float32(c.Y + r*math.Sin(theta))
		if k == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

func segment(z *vector.Rasterizer, a, b Point, r float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*r, dx/l*r
	z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	z.LineTo(float32(b.X+nx), float32(b.Y+ny))
	z.LineTo(float32(b.X-nx), float32(b.Y-ny))
	z.LineTo(float32(a.X-nx), float32(a.Y-ny))
	z.ClosePath()
}
