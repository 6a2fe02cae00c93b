// Package export turns placed signatures into bundles for a downstream
// consumer.
package export

import (
	"iter"
	"math"

	"github.com/digitorus/sigplace/placement"
	"github.com/digitorus/sigplace/viewer"
)

// SignatureWidth is the default width in viewer pixels a placed signature
// is displayed at.
const SignatureWidth = 200

// Bundle is the handoff record for one placed signature. Pixel values are
// rounded to integers in the viewer's coordinate frame.
type Bundle struct {
	ID string `json:"id"`

	// SignatureBase64 is the PNG as a data URL.
	SignatureBase64    string `json:"signatureBase64"`
	PageIndex          int    `json:"pageIndex"`
	CoordX             int    `json:"coordX"`
	CoordY             int    `json:"coordY"`
	ViewportWidth      int    `json:"viewportWidth"`
	ViewportHeight     int    `json:"viewportHeight"`
	SignatureWidth     int    `json:"signatureWidth"`
	SignatureHeight    int    `json:"signatureHeight"`
	TotalDocumentPages int    `json:"totalDocumentPages"`
}

// Batch is the unit handed to a Consumer.
type Batch struct {
	Bundles []Bundle `json:"bundles"`
}

// Geometry provides the rendered size of each page.
// *viewer.Viewer satisfies it.
type Geometry interface {
	Measured(pageIndex int) bool
	Geometry(pageIndex int) viewer.Geometry
}

type options struct {
	all            bool
	signatureWidth int
}

// Option configures Build.
type Option func(*options)

// All includes records on pages that were never rendered. Their viewport
// height is reported as zero.
func All() Option {
	return func(o *options) { o.all = true }
}

// WithSignatureWidth overrides the displayed signature width.
func WithSignatureWidth(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.signatureWidth = px
		}
	}
}

// Build creates one bundle per record. Records on pages without a measured
// height are skipped unless All is given. Records whose position is NaN or
// infinite have no pixel coordinates and are always skipped.
func Build(records iter.Seq[placement.Signature], geom Geometry, pageCount int, opts ...Option) Batch {
	o := options{signatureWidth: SignatureWidth}
	for _, opt := range opts {
		opt(&o)
	}

	var b Batch
	for rec := range records {
		if !o.all && !geom.Measured(rec.PageIndex) {
			continue
		}
		if !finite(rec.X) || !finite(rec.Y) {
			continue
		}
		g := geom.Geometry(rec.PageIndex)
		bundle := Bundle{
			ID:                 rec.ID,
			PageIndex:          rec.PageIndex,
			CoordX:             round(rec.X),
			CoordY:             round(rec.Y),
			ViewportWidth:      round(g.Width),
			ViewportHeight:     round(g.Height),
			SignatureWidth:     o.signatureWidth,
			TotalDocumentPages: pageCount,
		}
		if rec.Image != nil {
			bundle.SignatureBase64 = rec.Image.DataURL()
			bundle.SignatureHeight = round(rec.Image.ScaledHeight(float64(o.signatureWidth)))
		}
		b.Bundles = append(b.Bundles, bundle)
	}
	return b
}

// round rounds to the nearest integer, halves towards positive infinity.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
