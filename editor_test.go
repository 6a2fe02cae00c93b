package sigplace

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/digitorus/sigplace/capture"
	"github.com/digitorus/sigplace/drag"
	"github.com/digitorus/sigplace/export"
	"github.com/digitorus/sigplace/internal/sample"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	alerts  []string
	batches []export.Batch
}

func (r *recorder) Alert(msg string) { r.alerts = append(r.alerts, msg) }

func (r *recorder) Consume(b export.Batch) error {
	r.batches = append(r.batches, b)
	return nil
}

func newTestEditor(t *testing.T, pages int, opts ...Option) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithNotifier(rec), WithConsumer(rec)}, opts...)
	ed := NewEditor(Sample(pages), opts...)
	ed.Resize(612 + 24)
	return ed, rec
}

// sign draws a stroke across the default 400x192 pad.
func sign(ed *Editor) {
	ed.Pad().Stroke(capture.Point{X: 20, Y: 100}, capture.Point{X: 380, Y: 90})
}

func TestCommitEmptySignature(t *testing.T) {
	ed, rec := newTestEditor(t, 2)

	_, err := ed.CommitSignature()
	if !errors.Is(err, capture.ErrEmptySignature) {
		t.Fatalf("CommitSignature() error = %v", err)
	}
	if diff := cmp.Diff([]string{"please sign before continuing"}, rec.alerts); diff != "" {
		t.Errorf("alerts (-want +got):\n%s", diff)
	}
	if n := len(slices.Collect(ed.Placements())); n != 0 {
		t.Errorf("empty commit created %d records", n)
	}
}

func TestCommitSignature(t *testing.T) {
	ed, rec := newTestEditor(t, 5)
	ed.GoTo(3)
	sign(ed)

	got, err := ed.CommitSignature()
	require.NoError(t, err)
	if got.PageIndex != 2 || got.X != 0 || got.Y != 0 {
		t.Errorf("CommitSignature() = %+v, want page index 2 at origin", got)
	}
	if got.Image == nil || got.Image.Width != capture.DefaultPadWidth {
		t.Errorf("record image = %+v", got.Image)
	}
	if !ed.Pad().IsEmpty() {
		t.Error("commit should clear the pad")
	}
	all := slices.Collect(ed.Placements())
	if len(all) != 1 || all[0].ID != got.ID {
		t.Errorf("Placements() = %+v", all)
	}
	if len(rec.alerts) != 0 {
		t.Errorf("unexpected alerts %v", rec.alerts)
	}

	// The same drawing can be placed again after redrawing.
	sign(ed)
	again, err := ed.CommitSignature()
	require.NoError(t, err)
	if again.ID == got.ID {
		t.Error("second commit reused the id")
	}
}

func TestNavigation(t *testing.T) {
	ed, _ := newTestEditor(t, 5)
	if ed.Prev() != 1 {
		t.Error("Prev() on page 1 should stay on 1")
	}
	for range 4 {
		ed.Next()
	}
	if ed.Viewer().Current() != 5 {
		t.Errorf("current = %d, want 5", ed.Viewer().Current())
	}
	if ed.Next() != 5 {
		t.Error("Next() on the last page should stay on 5")
	}
	if ed.GoTo(0) != 1 || ed.GoTo(9) != 5 {
		t.Error("GoTo() should clamp")
	}
}

func TestCurrentPlacements(t *testing.T) {
	ed, _ := newTestEditor(t, 3)
	sign(ed)
	first, _ := ed.CommitSignature()
	ed.Next()
	sign(ed)
	second, _ := ed.CommitSignature()

	ids := func(e *Editor) []string {
		var out []string
		for rec := range e.CurrentPlacements() {
			out = append(out, rec.ID)
		}
		return out
	}
	if diff := cmp.Diff([]string{second.ID}, ids(ed)); diff != "" {
		t.Errorf("page 2 placements (-want +got):\n%s", diff)
	}
	ed.Prev()
	if diff := cmp.Diff([]string{first.ID}, ids(ed)); diff != "" {
		t.Errorf("page 1 placements (-want +got):\n%s", diff)
	}

	if !ed.RemovePlacement(first.ID) || ed.RemovePlacement(first.ID) {
		t.Error("RemovePlacement() should succeed once")
	}
	if diff := cmp.Diff([]string(nil), ids(ed), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("removed placement still listed:\n%s", diff)
	}
}

func TestMovePlacement(t *testing.T) {
	ed, _ := newTestEditor(t, 1)
	sign(ed)
	rec, _ := ed.CommitSignature()

	if !ed.MovePlacement(rec.ID, 33.5, -12) {
		t.Fatal("MovePlacement() of existing record failed")
	}
	got := slices.Collect(ed.Placements())[0]
	if got.X != 33.5 || got.Y != -12 {
		t.Errorf("position = (%g, %g)", got.X, got.Y)
	}
	if ed.MovePlacement("nope", 1, 1) {
		t.Error("MovePlacement() of unknown id reported true")
	}
}

func TestDrag(t *testing.T) {
	ed, _ := newTestEditor(t, 2)
	_, err := ed.RenderPage()
	require.NoError(t, err)
	sign(ed)
	rec, err := ed.CommitSignature()
	require.NoError(t, err)

	require.NoError(t, ed.BeginDrag(rec.ID))
	pos, err := ed.DragBy(50, 60)
	require.NoError(t, err)
	if pos != (drag.Point{X: 50, Y: 60}) {
		t.Errorf("DragBy() = %+v", pos)
	}
	// The 200x96 overlay stays inside the 612x792 page.
	pos, _ = ed.DragBy(1000, 1000)
	if pos != (drag.Point{X: 412, Y: 696}) {
		t.Errorf("DragBy() past the edge = %+v", pos)
	}

	got, err := ed.EndDrag()
	require.NoError(t, err)
	if got.X != 412 || got.Y != 696 {
		t.Errorf("EndDrag() = %+v", got)
	}
	if _, err := ed.EndDrag(); !errors.Is(err, ErrNoDrag) {
		t.Errorf("second EndDrag() error = %v", err)
	}
}

func TestDragErrors(t *testing.T) {
	ed, _ := newTestEditor(t, 2)
	sign(ed)
	rec, _ := ed.CommitSignature()

	if _, err := ed.DragBy(1, 1); !errors.Is(err, ErrNoDrag) {
		t.Errorf("DragBy() without drag error = %v", err)
	}
	if err := ed.BeginDrag("missing"); !errors.Is(err, ErrUnknownPlacement) {
		t.Errorf("BeginDrag(missing) error = %v", err)
	}

	ed.Next()
	if err := ed.BeginDrag(rec.ID); !errors.Is(err, ErrNotOnPage) {
		t.Errorf("BeginDrag() on other page error = %v", err)
	}

	// Dragging on an unrendered page measures it first.
	ed.Prev()
	require.NoError(t, ed.BeginDrag(rec.ID))
	if !ed.Viewer().Measured(0) {
		t.Error("BeginDrag() should render the page")
	}
	ed.DragBy(10, 10)

	// Changing the page abandons the drag and keeps the old position.
	ed.Next()
	if _, err := ed.EndDrag(); !errors.Is(err, ErrNoDrag) {
		t.Errorf("EndDrag() after page change error = %v", err)
	}
	got := slices.Collect(ed.Placements())[0]
	if got.X != 0 || got.Y != 0 {
		t.Errorf("cancelled drag moved the record to (%g, %g)", got.X, got.Y)
	}
}

func TestRemoveWhileDragging(t *testing.T) {
	ed, _ := newTestEditor(t, 1)
	sign(ed)
	rec, _ := ed.CommitSignature()
	require.NoError(t, ed.BeginDrag(rec.ID))
	ed.RemovePlacement(rec.ID)
	if _, err := ed.DragBy(1, 1); !errors.Is(err, ErrNoDrag) {
		t.Errorf("DragBy() after remove error = %v", err)
	}
}

func TestFreeDrag(t *testing.T) {
	ed, _ := newTestEditor(t, 1, WithDragController(drag.NewFree()))
	sign(ed)
	rec, _ := ed.CommitSignature()
	require.NoError(t, ed.BeginDrag(rec.ID))
	ed.DragBy(-40, 5000)
	got, err := ed.EndDrag()
	require.NoError(t, err)
	if got.X != -40 || got.Y != 5000 {
		t.Errorf("free drag ended at (%g, %g)", got.X, got.Y)
	}
}

func TestExport(t *testing.T) {
	ed, rec := newTestEditor(t, 3, WithSignatureWidth(150))

	// Nothing placed: no handoff.
	batch, err := ed.Export(true)
	require.NoError(t, err)
	if len(batch.Bundles) != 0 || len(rec.batches) != 0 {
		t.Fatal("empty export should not reach the consumer")
	}

	_, err = ed.RenderPage()
	require.NoError(t, err)
	sign(ed)
	first, _ := ed.CommitSignature()
	ed.MovePlacement(first.ID, 10.6, 20.2)

	ed.GoTo(3)
	sign(ed)
	third, _ := ed.CommitSignature()

	batch, err = ed.Export(false)
	require.NoError(t, err)
	want := export.Bundle{
		ID:                 first.ID,
		SignatureBase64:    first.Image.DataURL(),
		PageIndex:          0,
		CoordX:             11,
		CoordY:             20,
		ViewportWidth:      612,
		ViewportHeight:     792,
		SignatureWidth:     150,
		SignatureHeight:    72,
		TotalDocumentPages: 3,
	}
	if diff := cmp.Diff(export.Batch{Bundles: []export.Bundle{want}}, batch); diff != "" {
		t.Errorf("Export(false) mismatch (-want +got):\n%s", diff)
	}

	batch, err = ed.Export(true)
	require.NoError(t, err)
	require.Len(t, batch.Bundles, 2)
	if b := batch.Bundles[1]; b.ID != third.ID || b.ViewportHeight != 0 {
		t.Errorf("unrendered page bundle = %+v", b)
	}
	if len(rec.batches) != 2 {
		t.Errorf("consumer received %d batches, want 2", len(rec.batches))
	}
	if len(rec.alerts) != 2 {
		t.Errorf("alerts = %v", rec.alerts)
	}
}

func TestExportConsumerError(t *testing.T) {
	boom := errors.New("backend down")
	ed := NewEditor(Sample(1),
		WithNotifier(NotifierFunc(func(string) {})),
		WithConsumer(export.ConsumerFunc(func(export.Batch) error { return boom })))
	_, err := ed.RenderPage()
	require.NoError(t, err)
	sign(ed)
	_, err = ed.CommitSignature()
	require.NoError(t, err)

	if _, err := ed.Export(false); !errors.Is(err, boom) {
		t.Errorf("Export() error = %v", err)
	}
}

func TestEditorWithoutDocument(t *testing.T) {
	ed := NewEditor(nil, WithNotifier(NotifierFunc(func(string) {})))
	if ed.Next() != 1 || ed.Prev() != 1 {
		t.Error("navigation without a document should stay on page 1")
	}
	if _, err := ed.RenderPage(); err == nil {
		t.Error("RenderPage() without a document should fail")
	}
}

type stubSurface struct{ empty bool }

func (s *stubSurface) IsEmpty() bool { return s.empty }
func (s *stubSurface) Clear()        { s.empty = true }
func (s *stubSurface) Image() (image.Image, error) {
	return nil, errors.New("not implemented")
}

func TestCustomSurface(t *testing.T) {
	s := &stubSurface{}
	ed := NewEditor(Sample(1), WithSurface(s), WithNotifier(NotifierFunc(func(string) {})))
	if ed.Pad() != nil {
		t.Error("Pad() should be nil for a custom surface")
	}
	if _, err := ed.CommitSignature(); err == nil {
		t.Error("raster failure should fail the commit")
	}
	if s.empty {
		t.Error("failed commit must not clear the surface")
	}
	ed.ClearSignature()
	if !s.empty {
		t.Error("ClearSignature() should clear the surface")
	}
}

func TestDocument(t *testing.T) {
	doc := Sample(4)
	if doc.NumPages() != 4 {
		t.Errorf("NumPages() = %d", doc.NumPages())
	}
	box, err := doc.PageSize(1)
	require.NoError(t, err)
	if box.Dx() != 612 || box.Dy() != 792 {
		t.Errorf("PageSize(1) = %v", box)
	}
	if _, err := doc.PageSize(5); err == nil {
		t.Error("PageSize(5) should fail")
	}
	if _, size := doc.Source(); size <= 0 {
		t.Error("Source() size should be positive")
	}
	require.NoError(t, doc.Close())

	rotated, err := OpenBytes(sample.New(1, sample.WithRotation(1, 270)))
	require.NoError(t, err)
	box, _ = rotated.PageSize(1)
	if box.Dx() != 792 || box.Dy() != 612 {
		t.Errorf("rotated PageSize(1) = %v", box)
	}

	if _, err := OpenBytes([]byte("%PDF-1.7 garbage")); err == nil {
		t.Error("OpenBytes() accepted garbage")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, sample.New(2), 0o600))

	doc, err := OpenFile(path)
	require.NoError(t, err)
	defer doc.Close()
	if doc.NumPages() != 2 {
		t.Errorf("NumPages() = %d", doc.NumPages())
	}

	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("OpenFile() of a missing file should fail")
	}
}
