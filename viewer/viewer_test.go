package viewer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"
)

// pages is a PageSource backed by a slice of page sizes.
type pages []rect.Rect

func (p pages) NumPages() int { return len(p) }

func (p pages) PageSize(n int) (rect.Rect, error) {
	if n < 1 || n > len(p) {
		return rect.Rect{}, fmt.Errorf("page %d out of range", n)
	}
	return p[n-1], nil
}

func letter(n int) pages {
	out := make(pages, n)
	for i := range out {
		out[i] = rect.Rect{URx: 612, URy: 792}
	}
	return out
}

func TestNavigationClamps(t *testing.T) {
	v := New(letter(5))
	if v.Current() != 1 || v.PageCount() != 5 {
		t.Fatalf("initial state = %d/%d", v.Current(), v.PageCount())
	}

	if got := v.Prev(); got != 1 {
		t.Errorf("Prev() on first page = %d, want 1", got)
	}
	for range 4 {
		v.Next()
	}
	if v.Current() != 5 {
		t.Errorf("after four Next() current = %d, want 5", v.Current())
	}
	if got := v.Next(); got != 5 {
		t.Errorf("fifth Next() = %d, want 5", got)
	}
	if v.HasNext() || !v.HasPrev() {
		t.Error("HasNext/HasPrev wrong on last page")
	}
	if v.CurrentIndex() != 4 {
		t.Errorf("CurrentIndex() = %d, want 4", v.CurrentIndex())
	}
}

func TestGoTo(t *testing.T) {
	v := New(letter(5))
	tests := []struct {
		in, want int
	}{
		{3, 3},
		{0, 1},
		{-7, 1},
		{6, 5},
		{100, 5},
		{5, 5},
		{1, 1},
	}
	for _, tt := range tests {
		if got := v.GoTo(tt.in); got != tt.want {
			t.Errorf("GoTo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEmptyViewer(t *testing.T) {
	v := New(nil)
	if v.Next() != 1 || v.Prev() != 1 || v.GoTo(3) != 1 {
		t.Error("navigation without pages must stay on page 1")
	}
	if _, err := v.Render(); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Render() error = %v, want ErrNoDocument", err)
	}
}

func TestResize(t *testing.T) {
	v := New(letter(1))
	if v.Width() != DefaultRenderWidth {
		t.Errorf("initial width = %g", v.Width())
	}
	if got := v.Resize(636); got != 612 {
		t.Errorf("Resize(636) = %g, want 612", got)
	}
	if got := v.Resize(10); got != DefaultRenderWidth {
		t.Errorf("Resize(10) = %g, want default", got)
	}
}

func TestRenderCachesHeight(t *testing.T) {
	src := pages{
		{URx: 612, URy: 792},
		{URx: 792, URy: 612},
	}
	v := New(src)
	v.Resize(612 + FrameInset)

	var seen []Geometry
	v.OnGeometry(func(g Geometry) { seen = append(seen, g) })
	v.OnGeometry(nil)

	g, err := v.Render()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Geometry{Page: 1, Width: 612, Height: 792}, g); diff != "" {
		t.Errorf("Render() page 1 (-want +got):\n%s", diff)
	}
	if v.Measured(1) {
		t.Error("page 2 must not be measured before rendering")
	}

	v.Next()
	g, err = v.Render()
	if err != nil {
		t.Fatal(err)
	}
	if g.Height != 612*612.0/792 {
		t.Errorf("page 2 height = %g", g.Height)
	}

	// Heights measured before a resize are kept.
	v.Resize(324)
	v.Prev()
	g, err = v.Render()
	if err != nil {
		t.Fatal(err)
	}
	if g.Width != 300 || g.Height != 792 {
		t.Errorf("after resize geometry = %+v, want width 300 and cached height 792", g)
	}

	if len(seen) != 3 {
		t.Errorf("listener saw %d geometries, want 3", len(seen))
	}
	if h, ok := v.Height(2); !ok || h != 612*612.0/792 {
		t.Errorf("Height(2) = %g, %v", h, ok)
	}
	if !v.Measured(0) || !v.Measured(1) {
		t.Error("both pages should be measured")
	}
	if got := v.Geometry(5); got.Height != 0 || got.Page != 6 {
		t.Errorf("Geometry(5) = %+v, want zero height", got)
	}
}

func TestRenderErrors(t *testing.T) {
	v := New(pages{{}})
	if _, err := v.Render(); err == nil {
		t.Error("Render() should reject an empty page box")
	}
	if v.Measured(0) {
		t.Error("failed render must not cache a height")
	}
}

func TestLoadResets(t *testing.T) {
	v := New(letter(3))
	v.GoTo(3)
	if _, err := v.Render(); err != nil {
		t.Fatal(err)
	}

	v.Load(letter(2))
	if v.Current() != 1 || v.PageCount() != 2 {
		t.Errorf("after Load() state = %d/%d", v.Current(), v.PageCount())
	}
	if _, ok := v.Height(3); ok {
		t.Error("Load() should drop cached heights")
	}
}
