package stamp

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/digitorus/pdf"
	"github.com/digitorus/sigplace/export"
	"seehuhn.de/go/geom/matrix"
)

// addAppearance writes the form XObject that draws the image upright at
// the placement size.
func (ctx *context) addAppearance(imageID uint32, p placement) (uint32, error) {
	if p.width < 1 || p.height < 1 {
		return 0, fmt.Errorf("invalid appearance size %.2fx%.2f", p.width, p.height)
	}

	var stream bytes.Buffer
	stream.WriteString("q\n")
	fmt.Fprintf(&stream, "%s 0 0 %s 0 0 cm\n", num(p.width), num(p.height))
	stream.WriteString("/Im1 Do\n")
	stream.WriteString("Q\n")

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	buf.WriteString("  /Type /XObject\n")
	buf.WriteString("  /Subtype /Form\n")
	fmt.Fprintf(&buf, "  /BBox [0 0 %s %s]\n", num(p.width), num(p.height))
	fmt.Fprintf(&buf, "  /Matrix %s\n", matrixArray(p.form))
	buf.WriteString("  /Resources <<\n")
	fmt.Fprintf(&buf, "    /XObject << /Im1 %d 0 R >>\n", imageID)
	buf.WriteString("  >>\n")
	buf.WriteString("  /FormType 1\n")
	fmt.Fprintf(&buf, "  /Length %d\n", stream.Len())
	buf.WriteString(">>\n")
	buf.WriteString("stream\n")
	buf.Write(stream.Bytes())
	buf.WriteString("endstream\n")

	return ctx.addObject(buf.Bytes())
}

// addAnnotation writes the /Stamp annotation for a bundle.
func (ctx *context) addAnnotation(b export.Bundle, page pdf.Value, appearanceID uint32, p placement) (uint32, error) {
	ptr := page.GetPtr()

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	buf.WriteString("  /Type /Annot\n")
	buf.WriteString("  /Subtype /Stamp\n")
	fmt.Fprintf(&buf, "  /Rect [%s %s %s %s]\n", num(p.rect.LLx), num(p.rect.LLy), num(p.rect.URx), num(p.rect.URy))
	buf.WriteString("  /F 4\n")
	fmt.Fprintf(&buf, "  /P %d %d R\n", ptr.GetID(), ptr.GetGen())
	if b.ID != "" {
		fmt.Fprintf(&buf, "  /NM %s\n", pdfString(b.ID))
	}
	if ctx.opts.author != "" {
		fmt.Fprintf(&buf, "  /T %s\n", pdfString(ctx.opts.author))
	}
	buf.WriteString("  /Contents (Signature)\n")
	fmt.Fprintf(&buf, "  /AP << /N %d 0 R >>\n", appearanceID)
	buf.WriteString(">>")

	return ctx.addObject(buf.Bytes())
}

// addAnnotsToPage rewrites the page dictionary with the new annotations
// appended to /Annots.
func (ctx *context) addAnnotsToPage(u *pageUpdate) error {
	ptr := u.page.GetPtr()
	if ptr.GetID() == 0 {
		return fmt.Errorf("page %d is not an indirect object", u.index+1)
	}

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	for _, key := range u.page.Keys() {
		if key == "Annots" {
			continue
		}
		fmt.Fprintf(&buf, "  %s ", pdfName(key))
		if err := writeValue(&buf, ptr.GetID(), u.page.Key(key)); err != nil {
			return fmt.Errorf("failed to copy /%s: %w", key, err)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("  /Annots [")
	annots := u.page.Key("Annots")
	if annots.Kind() == pdf.Array {
		for i := 0; i < annots.Len(); i++ {
			buf.WriteString(" ")
			if err := writeValue(&buf, annots.GetPtr().GetID(), annots.Index(i)); err != nil {
				return fmt.Errorf("failed to copy annotation %d: %w", i, err)
			}
		}
	}
	for _, id := range u.annots {
		fmt.Fprintf(&buf, " %d 0 R", id)
	}
	buf.WriteString(" ]\n")
	buf.WriteString(">>")

	return ctx.updateObject(ptr.GetID(), ptr.GetGen(), buf.Bytes())
}

func matrixArray(m matrix.Matrix) string {
	return fmt.Sprintf("[%s %s %s %s %s %s]", num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
}

// num formats a PDF real with at most four decimals.
func num(f float64) string {
	f = math.Round(f*1e4) / 1e4
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
