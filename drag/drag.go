// Package drag defines the gesture capability used to reposition overlays.
//
// A drag starts at the overlay's committed position, accumulates pointer
// movement through Update and ends with either Commit or Cancel. Only a
// committed drag yields a new position.
package drag

// Point is a position or displacement in viewer pixels.
type Point struct {
	X, Y float64
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{p.X + d.X, p.Y + d.Y}
}

// Size is a width and height in viewer pixels.
type Size struct {
	W, H float64
}

// Controller is a drag gesture in progress.
type Controller interface {
	// Begin starts a drag of an item of the given size located at origin
	// inside a parent surface of size bounds. A drag already in progress
	// is discarded.
	Begin(origin Point, item Size, bounds Size)

	// Update moves the item by delta relative to its current drag position
	// and returns the resulting position.
	Update(delta Point) Point

	// Commit ends the drag and returns the final position. The boolean is
	// false when no drag was in progress.
	Commit() (Point, bool)

	// Cancel ends the drag without producing a position.
	Cancel()

	// Active reports whether a drag is in progress.
	Active() bool
}

// gesture is the state shared by the controllers in this package.
type gesture struct {
	active bool
	pos    Point
	item   Size
	bounds Size
}

func (g *gesture) begin(origin Point, item, bounds Size) {
	*g = gesture{active: true, pos: origin, item: item, bounds: bounds}
}

func (g *gesture) commit() (Point, bool) {
	if !g.active {
		return Point{}, false
	}
	p := g.pos
	*g = gesture{}
	return p, true
}

// ParentBounded keeps the item inside its parent surface.
type ParentBounded struct {
	g gesture
}

// NewParentBounded returns a controller that clamps the item to its parent.
func NewParentBounded() *ParentBounded {
	return &ParentBounded{}
}

func (c *ParentBounded) Begin(origin Point, item Size, bounds Size) {
	c.g.begin(origin, item, bounds)
	c.g.pos = c.clamp(origin)
}

func (c *ParentBounded) Update(delta Point) Point {
	if !c.g.active {
		return Point{}
	}
	c.g.pos = c.clamp(c.g.pos.Add(delta))
	return c.g.pos
}

func (c *ParentBounded) Commit() (Point, bool) { return c.g.commit() }
func (c *ParentBounded) Cancel()               { c.g = gesture{} }
func (c *ParentBounded) Active() bool          { return c.g.active }

// clamp limits p to [0, W-w] x [0, H-h]. An item larger than its parent is
// pinned to the top-left corner.
func (c *ParentBounded) clamp(p Point) Point {
	maxX := max(0, c.g.bounds.W-c.g.item.W)
	maxY := max(0, c.g.bounds.H-c.g.item.H)
	return Point{
		X: max(0, min(p.X, maxX)),
		Y: max(0, min(p.Y, maxY)),
	}
}

// Free moves the item without any containment.
type Free struct {
	g gesture
}

// NewFree returns an unconstrained controller.
func NewFree() *Free {
	return &Free{}
}

func (c *Free) Begin(origin Point, item Size, bounds Size) { c.g.begin(origin, item, bounds) }

func (c *Free) Update(delta Point) Point {
	if !c.g.active {
		return Point{}
	}
	c.g.pos = c.g.pos.Add(delta)
	return c.g.pos
}

func (c *Free) Commit() (Point, bool) { return c.g.commit() }
func (c *Free) Cancel()               { c.g = gesture{} }
func (c *Free) Active() bool          { return c.g.active }
