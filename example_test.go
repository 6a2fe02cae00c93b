package sigplace_test

import (
	"fmt"
	"log"

	"github.com/digitorus/sigplace"
	"github.com/digitorus/sigplace/capture"
	"github.com/digitorus/sigplace/export"
)

func ExampleEditor() {
	ed := sigplace.NewEditor(sigplace.Sample(3),
		sigplace.WithNotifier(sigplace.NotifierFunc(func(msg string) {
			fmt.Println("alert:", msg)
		})),
		sigplace.WithConsumer(export.ConsumerFunc(func(b export.Batch) error {
			for _, bundle := range b.Bundles {
				fmt.Printf("page %d at (%d, %d) in %dx%d\n",
					bundle.PageIndex, bundle.CoordX, bundle.CoordY,
					bundle.ViewportWidth, bundle.ViewportHeight)
			}
			return nil
		})),
	)
	ed.Resize(636)
	ed.Next()
	if _, err := ed.RenderPage(); err != nil {
		log.Fatal(err)
	}

	// Nothing drawn yet.
	_, _ = ed.CommitSignature()

	ed.Pad().Stroke(capture.Point{X: 20, Y: 100}, capture.Point{X: 380, Y: 90})
	rec, err := ed.CommitSignature()
	if err != nil {
		log.Fatal(err)
	}

	if err := ed.BeginDrag(rec.ID); err != nil {
		log.Fatal(err)
	}
	_, _ = ed.DragBy(100.4, 250.6)
	if _, err := ed.EndDrag(); err != nil {
		log.Fatal(err)
	}

	if _, err := ed.Export(false); err != nil {
		log.Fatal(err)
	}
	// Output:
	// alert: please sign before continuing
	// page 1 at (100, 251) in 612x792
	// alert: exported 1 placement(s)
}
