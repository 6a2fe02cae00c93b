package sigplace

import (
	"errors"
	"fmt"
	"iter"

	"github.com/digitorus/sigplace/capture"
	"github.com/digitorus/sigplace/drag"
	"github.com/digitorus/sigplace/export"
	"github.com/digitorus/sigplace/placement"
	"github.com/digitorus/sigplace/viewer"
)

var (
	// ErrUnknownPlacement is returned for ids that are not in the store.
	ErrUnknownPlacement = errors.New("unknown placement")

	// ErrNotOnPage is returned when dragging a placement that is not on the
	// current page.
	ErrNotOnPage = errors.New("placement is not on the current page")

	// ErrNoDrag is returned when updating or ending a drag that was never
	// started.
	ErrNoDrag = errors.New("no drag in progress")
)

// Editor owns the annotation session: the capture surface, the placement
// store, the viewer and the export consumer. It is driven by one caller at
// a time and is not safe for concurrent use.
type Editor struct {
	capture        *capture.Capture
	store          *placement.Store
	viewer         *viewer.Viewer
	drag           drag.Controller
	consumer       export.Consumer
	notifier       Notifier
	signatureWidth int

	// dragging is the id of the placement being dragged.
	dragging string
}

// Option configures an Editor.
type Option func(*Editor)

// WithSurface replaces the built-in drawing pad.
func WithSurface(s capture.Surface) Option {
	return func(e *Editor) { e.capture = capture.New(s) }
}

// WithDragController replaces the parent-bounded drag behaviour.
func WithDragController(c drag.Controller) Option {
	return func(e *Editor) {
		if c != nil {
			e.drag = c
		}
	}
}

// WithConsumer sets the receiver of exported batches.
func WithConsumer(c export.Consumer) Option {
	return func(e *Editor) { e.consumer = c }
}

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithSignatureWidth sets the displayed width of placed signatures in
// viewer pixels.
func WithSignatureWidth(px int) Option {
	return func(e *Editor) {
		if px > 0 {
			e.signatureWidth = px
		}
	}
}

// NewEditor returns an editor showing the first page of source. A nil
// source starts without a document.
func NewEditor(source viewer.PageSource, opts ...Option) *Editor {
	e := &Editor{
		capture:        capture.New(nil),
		store:          placement.NewStore(),
		viewer:         viewer.New(source),
		drag:           drag.NewParentBounded(),
		consumer:       export.LogConsumer{},
		notifier:       LogNotifier{},
		signatureWidth: export.SignatureWidth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pad returns the built-in drawing pad, or nil when a custom surface is
// used.
func (e *Editor) Pad() *capture.Pad {
	pad, _ := e.capture.Surface().(*capture.Pad)
	return pad
}

// Viewer returns the document viewer.
func (e *Editor) Viewer() *viewer.Viewer {
	return e.viewer
}

// CommitSignature turns the current drawing into a placement at the
// top-left corner of the current page. An empty drawing is reported
// through the notifier and creates nothing.
func (e *Editor) CommitSignature() (placement.Signature, error) {
	img, err := e.capture.Commit()
	if err != nil {
		if errors.Is(err, capture.ErrEmptySignature) {
			e.notifier.Alert(err.Error())
		}
		return placement.Signature{}, err
	}
	return e.store.Add(img, e.viewer.CurrentIndex()), nil
}

// ClearSignature wipes the drawing surface. Placed signatures stay.
func (e *Editor) ClearSignature() {
	e.capture.Reset()
}

// Next shows the next page.
func (e *Editor) Next() int {
	e.CancelDrag()
	return e.viewer.Next()
}

// Prev shows the previous page.
func (e *Editor) Prev() int {
	e.CancelDrag()
	return e.viewer.Prev()
}

// GoTo shows the 1-based page n, clamped to the document.
func (e *Editor) GoTo(n int) int {
	e.CancelDrag()
	return e.viewer.GoTo(n)
}

// Resize applies a new container width and returns the page render width.
func (e *Editor) Resize(containerWidth float64) float64 {
	return e.viewer.Resize(containerWidth)
}

// RenderPage lays out the current page.
func (e *Editor) RenderPage() (viewer.Geometry, error) {
	return e.viewer.Render()
}

// Placements yields every placed signature in placement order.
func (e *Editor) Placements() iter.Seq[placement.Signature] {
	return e.store.All()
}

// CurrentPlacements yields the signatures on the current page.
func (e *Editor) CurrentPlacements() iter.Seq[placement.Signature] {
	return e.store.ByPage(e.viewer.CurrentIndex())
}

// RemovePlacement deletes a placed signature. Unknown ids are ignored.
func (e *Editor) RemovePlacement(id string) bool {
	if id == e.dragging {
		e.CancelDrag()
	}
	return e.store.Remove(id)
}

// MovePlacement sets the position of a placed signature directly.
func (e *Editor) MovePlacement(id string, x, y float64) bool {
	return e.store.Move(id, x, y)
}

// BeginDrag starts dragging a placement on the current page. The page is
// rendered first if its geometry is unknown.
func (e *Editor) BeginDrag(id string) error {
	rec, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlacement, id)
	}
	if rec.PageIndex != e.viewer.CurrentIndex() {
		return fmt.Errorf("%w: %s is on page %d", ErrNotOnPage, id, rec.PageIndex+1)
	}

	g := e.viewer.Geometry(rec.PageIndex)
	if !e.viewer.Measured(rec.PageIndex) {
		var err error
		if g, err = e.viewer.Render(); err != nil {
			return err
		}
	}

	item := drag.Size{W: float64(e.signatureWidth)}
	if rec.Image != nil {
		item.H = rec.Image.ScaledHeight(item.W)
	}
	e.drag.Begin(drag.Point{X: rec.X, Y: rec.Y}, item, drag.Size{W: g.Width, H: g.Height})
	e.dragging = id
	return nil
}

// DragBy moves the dragged placement by a pointer delta and returns the
// position it would be released at.
func (e *Editor) DragBy(dx, dy float64) (drag.Point, error) {
	if e.dragging == "" || !e.drag.Active() {
		return drag.Point{}, ErrNoDrag
	}
	return e.drag.Update(drag.Point{X: dx, Y: dy}), nil
}

// EndDrag releases the placement and stores its final position.
func (e *Editor) EndDrag() (placement.Signature, error) {
	id := e.dragging
	e.dragging = ""
	pos, ok := e.drag.Commit()
	if id == "" || !ok {
		return placement.Signature{}, ErrNoDrag
	}
	if !e.store.Move(id, pos.X, pos.Y) {
		return placement.Signature{}, fmt.Errorf("%w: %s", ErrUnknownPlacement, id)
	}
	rec, _ := e.store.Get(id)
	return rec, nil
}

// CancelDrag abandons a drag in progress; the placement keeps its
// position.
func (e *Editor) CancelDrag() {
	if e.dragging == "" {
		return
	}
	e.drag.Cancel()
	e.dragging = ""
}

// Export bundles the placements and hands them to the consumer. Only
// placements on rendered pages are included unless all is set. Nothing is
// handed off when there is nothing to export.
func (e *Editor) Export(all bool) (export.Batch, error) {
	opts := []export.Option{export.WithSignatureWidth(e.signatureWidth)}
	if all {
		opts = append(opts, export.All())
	}
	batch := export.Build(e.store.All(), e.viewer, e.viewer.PageCount(), opts...)
	if len(batch.Bundles) == 0 || e.consumer == nil {
		return batch, nil
	}
	if err := e.consumer.Consume(batch); err != nil {
		return batch, fmt.Errorf("failed to hand off placements: %w", err)
	}
	e.notifier.Alert(fmt.Sprintf("exported %d placement(s)", len(batch.Bundles)))
	return batch, nil
}
