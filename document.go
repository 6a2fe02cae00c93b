// Package sigplace places hand-drawn signatures on the pages of a PDF.
//
// An Editor ties the pieces together: a drawing surface captures the
// signature, committing it places a copy on the current page, drag gestures
// move copies around and Export hands the placements to a consumer.
//
// Basic usage:
//
//	doc, err := sigplace.OpenFile("contract.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ed := sigplace.NewEditor(doc, sigplace.WithConsumer(export.NewJSONConsumer(os.Stdout)))
//	ed.Resize(824)
//	ed.RenderPage()
//	// draw on ed.Pad() ...
//	rec, err := ed.CommitSignature()
//	...
//	ed.Export(false)
package sigplace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	pdflib "github.com/digitorus/pdf"
	"github.com/digitorus/sigplace/internal/pdfpage"
	"github.com/digitorus/sigplace/internal/sample"
	"seehuhn.de/go/geom/rect"
)

// Document is an opened PDF. It provides page geometry to the viewer.
type Document struct {
	reader io.ReaderAt
	size   int64
	rdr    *pdflib.Reader
	closer io.Closer
}

// Open initializes a Document from an io.ReaderAt (e.g., an open file or
// memory buffer). The size parameter must be the total size of the PDF in
// bytes.
func Open(reader io.ReaderAt, size int64) (*Document, error) {
	rdr, err := pdflib.NewReader(reader, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	if rdr.NumPage() == 0 {
		return nil, errors.New("failed to open PDF: document has no pages")
	}
	return &Document{reader: reader, size: size, rdr: rdr}, nil
}

// OpenFile opens a PDF from disk. Close releases the file.
func OpenFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	finfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	doc, err := Open(file, finfo.Size())
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	doc.closer = file
	return doc, nil
}

// OpenBytes opens a PDF held in memory.
func OpenBytes(data []byte) (*Document, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// Sample returns the bundled demo document with the given number of pages.
func Sample(pages int) *Document {
	doc, err := OpenBytes(sample.New(pages))
	if err != nil {
		panic(fmt.Sprintf("sigplace: bundled sample does not parse: %v", err))
	}
	return doc
}

// Close releases the underlying file, if any.
func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int {
	return d.rdr.NumPage()
}

// PageSize returns the size of a 1-based page as a viewer displays it, in
// PDF points. Quarter-turn rotations swap width and height.
func (d *Document) PageSize(page int) (rect.Rect, error) {
	p, err := pdfpage.Find(d.rdr, page)
	if err != nil {
		return rect.Rect{}, err
	}
	w, h := pdfpage.DisplaySize(p)
	return rect.Rect{URx: w, URy: h}, nil
}

// Source returns the raw document for consumers that rewrite it.
func (d *Document) Source() (io.ReaderAt, int64) {
	return d.reader, d.size
}

// Reader returns the low-level PDF reader.
func (d *Document) Reader() *pdflib.Reader {
	return d.rdr
}
