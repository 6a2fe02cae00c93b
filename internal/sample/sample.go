// Package sample generates the document bundled with the editor.
//
// The document is produced in memory with a classic cross-reference table so
// it can be opened by any PDF reader without touching the filesystem.
package sample

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
)

const (
	// LetterWidth is the width of a US Letter page in PDF points.
	LetterWidth = 612.0
	// LetterHeight is the height of a US Letter page in PDF points.
	LetterHeight = 792.0
)

type options struct {
	width, height float64
	rotate        map[int]int
	boxes         map[int][4]float64
	xrefStream    bool
}

// Option customises the generated document.
type Option func(*options)

// WithPageSize sets the MediaBox shared by all pages through the page tree.
func WithPageSize(width, height float64) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithRotation sets /Rotate on a single 1-based page.
func WithRotation(page, degrees int) Option {
	return func(o *options) {
		o.rotate[page] = degrees
	}
}

// WithMediaBox overrides the inherited MediaBox on a single 1-based page.
func WithMediaBox(page int, box [4]float64) Option {
	return func(o *options) {
		o.boxes[page] = box
	}
}

// WithXrefStream writes a cross-reference stream instead of a classic
// table.
func WithXrefStream() Option {
	return func(o *options) {
		o.xrefStream = true
	}
}

// New returns a PDF with the given number of pages. Every page carries a
// "Page n of m" label so rendered output is easy to tell apart.
func New(pages int, opts ...Option) []byte {
	o := options{
		width:  LetterWidth,
		height: LetterHeight,
		rotate: make(map[int]int),
		boxes:  make(map[int][4]float64),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if pages < 1 {
		pages = 1
	}

	// Object layout: 1 catalog, 2 page tree, 3 font, then a page and its
	// content stream per page.
	const fontID = 3
	pageID := func(i int) int { return 4 + 2*(i-1) }
	size := 4 + 2*pages

	var buf bytes.Buffer
	offsets := make(map[int]int, size)
	obj := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 1; i <= pages; i++ {
		if i > 1 {
			kids.WriteString(" ")
		}
		fmt.Fprintf(&kids, "%d 0 R", pageID(i))
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %s %s] >>",
		kids.String(), pages, num(o.width), num(o.height)))

	obj(fontID, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i := 1; i <= pages; i++ {
		var page bytes.Buffer
		fmt.Fprintf(&page, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R", fontID, pageID(i)+1)
		if box, ok := o.boxes[i]; ok {
			fmt.Fprintf(&page, " /MediaBox [%s %s %s %s]", num(box[0]), num(box[1]), num(box[2]), num(box[3]))
		}
		if r, ok := o.rotate[i]; ok {
			fmt.Fprintf(&page, " /Rotate %d", r)
		}
		page.WriteString(" >>")
		obj(pageID(i), page.String())

		content := fmt.Sprintf("BT /F1 24 Tf 72 %s Td (Page %d of %d) Tj ET", num(o.height-72), i, pages)
		obj(pageID(i)+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	ids := make([]int, 0, len(offsets))
	for id := range offsets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	xref := buf.Len()
	if o.xrefStream {
		writeXrefStream(&buf, ids, offsets, size, xref)
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, id := range ids {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)

	return buf.Bytes()
}

// writeXrefStream appends an uncompressed cross-reference stream object
// numbered size, covering itself, and the closing startxref.
func writeXrefStream(buf *bytes.Buffer, ids []int, offsets map[int]int, size, xref int) {
	row := func(b *bytes.Buffer, typ byte, offset uint32, gen uint16) {
		b.WriteByte(typ)
		b.Write(binary.BigEndian.AppendUint32(nil, offset))
		b.Write(binary.BigEndian.AppendUint16(nil, gen))
	}

	var data bytes.Buffer
	row(&data, 0, 0, 0xffff)
	for _, id := range ids {
		row(&data, 1, uint32(offsets[id]), 0)
	}
	row(&data, 1, uint32(xref), 0)

	fmt.Fprintf(buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Root 1 0 R /Length %d >>\nstream\n",
		size, size+1, data.Len())
	buf.Write(data.Bytes())
	fmt.Fprintf(buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xref)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
