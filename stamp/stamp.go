// Package stamp writes exported placements into a PDF.
//
// Each bundle becomes a /Stamp annotation whose appearance draws the
// signature image. The document is extended with an incremental update:
// the original bytes are kept untouched, new objects and rewritten page
// dictionaries are appended, followed by a cross-reference section of the
// same kind as the input and a trailer pointing back at the previous one.
package stamp

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/digitorus/pdf"
	"github.com/digitorus/sigplace/export"
	"github.com/digitorus/sigplace/internal/pdfpage"
	"github.com/mattetti/filebuffer"
)

// ErrUnsupportedXref is returned for documents whose cross-reference
// section is neither a table nor a stream.
var ErrUnsupportedXref = errors.New("unsupported xref type")

type options struct {
	compressLevel int
	author        string
	logger        *log.Logger
}

// Option configures a stamping run.
type Option func(*options)

// WithCompressLevel sets the zlib level for image data. zlib.NoCompression
// stores images unfiltered.
func WithCompressLevel(level int) Option {
	return func(o *options) { o.compressLevel = level }
}

// WithAuthor sets the annotation author (/T).
func WithAuthor(name string) Option {
	return func(o *options) { o.author = name }
}

// WithLogger reports each stamped placement to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

type xrefEntry struct {
	ID     uint32
	Gen    uint16
	Offset int64
}

// pageUpdate collects the annotations added to one page.
type pageUpdate struct {
	index  int
	page   pdf.Value
	annots []uint32
}

// context holds the state of one incremental update.
type context struct {
	opts   options
	reader *pdf.Reader
	out    *filebuffer.Buffer
	nextID uint32
	xref   []xrefEntry
	pages  map[int]*pageUpdate
}

// Apply writes input with every bundle of batch stamped onto its page.
func Apply(input io.ReaderAt, size int64, output io.Writer, batch export.Batch, opts ...Option) error {
	o := options{compressLevel: zlib.DefaultCompression}
	for _, opt := range opts {
		opt(&o)
	}

	reader, err := pdf.NewReader(input, size)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	switch reader.XrefInformation.Type {
	case "table", "stream":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedXref, reader.XrefInformation.Type)
	}

	ctx := &context{
		opts:   o,
		reader: reader,
		out:    filebuffer.New([]byte{}),
		pages:  make(map[int]*pageUpdate),
	}
	ctx.nextID = uint32(reader.Trailer().Key("Size").Int64())
	if ctx.nextID == 0 {
		ctx.nextID = uint32(reader.XrefInformation.ItemCount)
	}

	if _, err := io.Copy(ctx.out, io.NewSectionReader(input, 0, size)); err != nil {
		return fmt.Errorf("failed to copy document: %w", err)
	}

	if len(batch.Bundles) > 0 {
		if err := ctx.update(batch); err != nil {
			return err
		}
	}

	if _, err := output.Write(ctx.out.Buff.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (ctx *context) update(batch export.Batch) error {
	if b := ctx.out.Buff.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		if _, err := ctx.out.Write([]byte("\n")); err != nil {
			return err
		}
	}

	for _, bundle := range batch.Bundles {
		if err := ctx.stampBundle(bundle); err != nil {
			return fmt.Errorf("failed to stamp placement %s: %w", bundle.ID, err)
		}
	}

	updates := make([]*pageUpdate, 0, len(ctx.pages))
	for _, u := range ctx.pages {
		updates = append(updates, u)
	}
	slices.SortFunc(updates, func(a, b *pageUpdate) int { return a.index - b.index })
	for _, u := range updates {
		if err := ctx.addAnnotsToPage(u); err != nil {
			return fmt.Errorf("failed to update page %d: %w", u.index+1, err)
		}
	}

	if err := ctx.writeXref(); err != nil {
		return err
	}

	out := ctx.out.Buff.Bytes()
	if _, err := pdf.NewReader(bytes.NewReader(out), int64(len(out))); err != nil {
		return fmt.Errorf("updated document does not parse: %w", err)
	}
	return nil
}

func (ctx *context) stampBundle(b export.Bundle) error {
	page, err := pdfpage.Find(ctx.reader, b.PageIndex+1)
	if err != nil {
		return err
	}

	img, err := decodeBundleImage(b)
	if err != nil {
		return err
	}

	place, err := placeBundle(b, page, img)
	if err != nil {
		return err
	}

	imageID, err := ctx.addImage(img)
	if err != nil {
		return fmt.Errorf("failed to add image: %w", err)
	}
	appearanceID, err := ctx.addAppearance(imageID, place)
	if err != nil {
		return fmt.Errorf("failed to add appearance: %w", err)
	}
	annotID, err := ctx.addAnnotation(b, page, appearanceID, place)
	if err != nil {
		return fmt.Errorf("failed to add annotation: %w", err)
	}

	u, ok := ctx.pages[b.PageIndex]
	if !ok {
		u = &pageUpdate{index: b.PageIndex, page: page}
		ctx.pages[b.PageIndex] = u
	}
	u.annots = append(u.annots, annotID)

	if ctx.opts.logger != nil {
		ctx.opts.logger.Printf("stamped placement %s on page %d at [%.2f %.2f %.2f %.2f]",
			b.ID, b.PageIndex+1, place.rect.LLx, place.rect.LLy, place.rect.URx, place.rect.URy)
	}
	return nil
}

// addObject appends a new indirect object and returns its number.
func (ctx *context) addObject(body []byte) (uint32, error) {
	id := ctx.nextID
	ctx.nextID++
	if err := ctx.writeObject(id, 0, body); err != nil {
		return 0, err
	}
	return id, nil
}

// updateObject appends a new revision of an existing object.
func (ctx *context) updateObject(id uint32, gen uint16, body []byte) error {
	return ctx.writeObject(id, gen, body)
}

func (ctx *context) writeObject(id uint32, gen uint16, body []byte) error {
	offset := int64(ctx.out.Buff.Len())
	body = bytes.TrimRight(body, "\n")
	if _, err := fmt.Fprintf(ctx.out, "%d %d obj\n%s\nendobj\n", id, gen, body); err != nil {
		return fmt.Errorf("failed to write object %d: %w", id, err)
	}
	ctx.xref = append(ctx.xref, xrefEntry{ID: id, Gen: gen, Offset: offset})
	return nil
}

// Consumer stamps each batch it receives into a copy of a source document.
type Consumer struct {
	source io.ReaderAt
	size   int64
	output io.Writer
	opts   []Option
}

// NewConsumer returns a consumer stamping onto source and writing the result
// to output.
func NewConsumer(source io.ReaderAt, size int64, output io.Writer, opts ...Option) *Consumer {
	return &Consumer{source: source, size: size, output: output, opts: opts}
}

func (c *Consumer) Consume(b export.Batch) error {
	return Apply(c.source, c.size, c.output, b, c.opts...)
}
