package cli

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/digitorus/sigplace"
	"github.com/digitorus/sigplace/config"
)

// PlacePDF runs a one-shot placement. It is a variable so tests can replace
// it.
var PlacePDF = Place

func PlaceCommand() {
	placeFlags := flag.NewFlagSet("place", flag.ExitOnError)
	var s settings
	s.register(placeFlags)

	var format, out, author string
	var signatureWidth int
	placeFlags.StringVar(&format, "format", "", "Output format (json, log, pdf); pdf when -out is set, json otherwise")
	placeFlags.StringVar(&out, "out", "", "Output file")
	placeFlags.StringVar(&author, "author", "", "Author recorded on stamped annotations")
	placeFlags.IntVar(&signatureWidth, "signature-width", 0, "Displayed signature width in pixels")

	placeFlags.Usage = func() {
		fmt.Printf("Usage: %s place [options] <signature.png> <page> <x> <y>\n\n", os.Args[0])
		fmt.Println("Place a signature image on a page at viewer pixel coordinates")
		fmt.Println("\nOptions:")
		placeFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s place signature.png 1 120 640\n", os.Args[0])
		fmt.Printf("  %s place -doc contract.pdf -out signed.pdf -author \"J. Doe\" signature.png 2 40 500\n", os.Args[0])
	}

	if err := placeFlags.Parse(os.Args[2:]); err != nil {
		log.Fatalf("Failed to parse place flags: %v", err)
	}

	if placeFlags.NArg() < 4 {
		placeFlags.Usage()
		osExit(1)
		return
	}

	page, err := strconv.Atoi(placeFlags.Arg(1))
	if err != nil {
		log.Printf("Invalid page %q", placeFlags.Arg(1))
		osExit(1)
		return
	}
	pos, err := floats(placeFlags.Args()[2:4], 2)
	if err != nil {
		log.Printf("Invalid position (%s, %s): %v", placeFlags.Arg(2), placeFlags.Arg(3), err)
		osExit(1)
		return
	}
	x, y := pos[0], pos[1]

	cfg, err := s.load()
	if err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	switch {
	case format != "":
		cfg.Output.Format = format
	case out != "":
		cfg.Output.Format = config.FormatPDF
	default:
		cfg.Output.Format = config.FormatJSON
	}
	if out != "" || cfg.Output.Format != config.FormatPDF {
		cfg.Output.Path = out
	}
	if author != "" {
		cfg.Output.Author = author
	}
	if signatureWidth > 0 {
		cfg.Viewer.SignatureWidth = signatureWidth
	}
	cfg.Pad.Signature = placeFlags.Arg(0)
	if err := cfg.ValidateFields(); err != nil {
		log.Println(err)
		osExit(1)
		return
	}

	if err := PlacePDF(os.Stdout, cfg, page, x, y); err != nil {
		log.Println(err)
		osExit(1)
	}
}

// Place renders the 1-based page, places the configured signature at (x, y)
// viewer pixels and exports the result. With a bounded viewer the position
// is clamped to the page.
func Place(w io.Writer, cfg config.Config, page int, x, y float64) error {
	doc, err := openDocument(cfg.Document)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return fmt.Errorf("invalid position (%g, %g)", x, y)
	}
	if page < 1 || page > doc.NumPages() {
		return fmt.Errorf("page %d out of range, document has %d pages", page, doc.NumPages())
	}

	ed, err := newEditor(cfg, doc, w, sigplace.LogNotifier{})
	if err != nil {
		return err
	}
	ed.GoTo(page)
	if _, err := ed.RenderPage(); err != nil {
		return err
	}

	rec, err := ed.CommitSignature()
	if err != nil {
		return err
	}
	if err := ed.BeginDrag(rec.ID); err != nil {
		return err
	}
	if _, err := ed.DragBy(x, y); err != nil {
		return err
	}
	if rec, err = ed.EndDrag(); err != nil {
		return err
	}
	if rec.X != x || rec.Y != y {
		log.Printf("Placement clamped to (%g, %g)", rec.X, rec.Y)
	}

	_, err = ed.Export(false)
	return err
}
