package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/digitorus/sigplace/images"
	"github.com/digitorus/sigplace/placement"
	"github.com/digitorus/sigplace/viewer"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// fixedGeometry reports a measured height for the pages in heights.
type fixedGeometry struct {
	width   float64
	heights map[int]float64 // by zero-based page
}

func (g fixedGeometry) Measured(i int) bool {
	_, ok := g.heights[i]
	return ok
}

func (g fixedGeometry) Geometry(i int) viewer.Geometry {
	return viewer.Geometry{Page: i + 1, Width: g.width, Height: g.heights[i]}
}

func testImage(t *testing.T, w, h int) *images.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	img, err := images.New("sig", buf.Bytes())
	require.NoError(t, err)
	return img
}

func TestBuild(t *testing.T) {
	img := testImage(t, 400, 192)
	s := placement.NewStore()
	a := s.Add(img, 0)
	s.Move(a.ID, 10.4, 20.5)
	b := s.Add(img, 2)
	s.Move(b.ID, 99.5, -0.5)

	geom := fixedGeometry{width: 611.6, heights: map[int]float64{0: 791.49}}

	got := Build(s.All(), geom, 3)
	want := Batch{Bundles: []Bundle{{
		ID:                 a.ID,
		SignatureBase64:    img.DataURL(),
		PageIndex:          0,
		CoordX:             10,
		CoordY:             21,
		ViewportWidth:      612,
		ViewportHeight:     791,
		SignatureWidth:     200,
		SignatureHeight:    96,
		TotalDocumentPages: 3,
	}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}

	got = Build(s.All(), geom, 3, All())
	require.Len(t, got.Bundles, 2)
	second := got.Bundles[1]
	if second.ID != b.ID || second.PageIndex != 2 || second.ViewportHeight != 0 {
		t.Errorf("unmeasured page bundle = %+v", second)
	}
	if second.CoordX != 100 || second.CoordY != 0 {
		t.Errorf("rounded coords = (%d, %d), want (100, 0)", second.CoordX, second.CoordY)
	}
}

func TestBuildEmpty(t *testing.T) {
	s := placement.NewStore()
	got := Build(s.All(), fixedGeometry{}, 1)
	if len(got.Bundles) != 0 {
		t.Errorf("Build() of empty store = %+v", got)
	}
}

func TestJSONConsumer(t *testing.T) {
	var buf bytes.Buffer
	batch := Batch{Bundles: []Bundle{{ID: "x", PageIndex: 1, CoordX: 5, SignatureWidth: 200}}}
	require.NoError(t, NewJSONConsumer(&buf).Consume(batch))

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	bundle := raw["bundles"][0]
	for _, key := range []string{
		"id", "signatureBase64", "pageIndex", "coordX", "coordY",
		"viewportWidth", "viewportHeight", "signatureWidth",
		"signatureHeight", "totalDocumentPages",
	} {
		if _, ok := bundle[key]; !ok {
			t.Errorf("missing JSON field %q", key)
		}
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("output should be indented")
	}
}

func TestLogConsumer(t *testing.T) {
	var buf bytes.Buffer
	c := LogConsumer{Logger: log.New(&buf, "", 0)}
	batch := Batch{Bundles: []Bundle{{
		ID: "abc", PageIndex: 1, TotalDocumentPages: 4, CoordX: 3, CoordY: 7,
		SignatureWidth: 200, SignatureHeight: 96, ViewportWidth: 600, ViewportHeight: 776,
	}}}
	require.NoError(t, c.Consume(batch))

	want := "placement abc: page 2 of 4 at (3, 7) px, signature 200x96 px, viewport 600x776 px\n"
	if buf.String() != want {
		t.Errorf("log output = %q, want %q", buf.String(), want)
	}
}

func TestMulti(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	c := Multi(
		ConsumerFunc(func(Batch) error { calls = append(calls, "a"); return nil }),
		ConsumerFunc(func(Batch) error { calls = append(calls, "b"); return boom }),
		ConsumerFunc(func(Batch) error { calls = append(calls, "c"); return nil }),
	)
	if err := c.Consume(Batch{}); !errors.Is(err, boom) {
		t.Errorf("Consume() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, calls); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
}

func TestBuildSignatureWidth(t *testing.T) {
	s := placement.NewStore()
	s.Add(testImage(t, 400, 192), 0)
	geom := fixedGeometry{width: 600, heights: map[int]float64{0: 776}}

	got := Build(s.All(), geom, 1, WithSignatureWidth(100))
	require.Len(t, got.Bundles, 1)
	if b := got.Bundles[0]; b.SignatureWidth != 100 || b.SignatureHeight != 48 {
		t.Errorf("signature size = %dx%d, want 100x48", b.SignatureWidth, b.SignatureHeight)
	}

	got = Build(s.All(), geom, 1, WithSignatureWidth(0))
	if b := got.Bundles[0]; b.SignatureWidth != SignatureWidth {
		t.Errorf("zero width should keep the default, got %d", b.SignatureWidth)
	}
}

func TestBuildSkipsNonFinitePositions(t *testing.T) {
	img := testImage(t, 400, 192)
	s := placement.NewStore()
	ok := s.Add(img, 0)
	s.Move(ok.ID, 5, 5)
	for _, pos := range [][2]float64{
		{math.NaN(), 0},
		{0, math.Inf(1)},
		{math.Inf(-1), math.NaN()},
	} {
		rec := s.Add(img, 0)
		s.Move(rec.ID, pos[0], pos[1])
	}

	got := Build(s.All(), fixedGeometry{width: 600, heights: map[int]float64{0: 776}}, 1, All())
	require.Len(t, got.Bundles, 1)
	if b := got.Bundles[0]; b.ID != ok.ID || b.CoordX != 5 || b.CoordY != 5 {
		t.Errorf("Build() kept %+v", b)
	}
}
