package stamp

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
)

// xrefStreamWidths is the /W array of written xref streams: type, offset,
// generation.
var xrefStreamWidths = [3]int{1, 4, 2}

func (ctx *context) writeXref() error {
	switch ctx.reader.XrefInformation.Type {
	case "table":
		return ctx.writeXrefTable()
	case "stream":
		return ctx.writeXrefStream()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedXref, ctx.reader.XrefInformation.Type)
	}
}

// subsections groups entries into runs of consecutive object numbers.
func subsections(entries []xrefEntry) [][]xrefEntry {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b xrefEntry) int { return int(a.ID) - int(b.ID) })

	var out [][]xrefEntry
	for i, e := range sorted {
		if i > 0 && e.ID == sorted[i-1].ID+1 {
			out[len(out)-1] = append(out[len(out)-1], e)
			continue
		}
		out = append(out, []xrefEntry{e})
	}
	return out
}

func (ctx *context) writeXrefTable() error {
	start := int64(ctx.out.Buff.Len())

	var buf bytes.Buffer
	buf.WriteString("xref\n")
	for _, sub := range subsections(ctx.xref) {
		fmt.Fprintf(&buf, "%d %d\n", sub[0].ID, len(sub))
		for _, e := range sub {
			fmt.Fprintf(&buf, "%010d %05d n\r\n", e.Offset, e.Gen)
		}
	}

	buf.WriteString("trailer\n<<\n")
	fmt.Fprintf(&buf, "  /Size %d\n", ctx.size())
	ctx.writeTrailerEntries(&buf)
	buf.WriteString(">>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", start)

	if _, err := ctx.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write xref table: %w", err)
	}
	return nil
}

func (ctx *context) writeXrefStream() error {
	id := ctx.nextID
	ctx.nextID++
	start := int64(ctx.out.Buff.Len())

	entries := append(slices.Clone(ctx.xref), xrefEntry{ID: id, Offset: start})
	subs := subsections(entries)

	var rows bytes.Buffer
	var index bytes.Buffer
	for _, sub := range subs {
		fmt.Fprintf(&index, " %d %d", sub[0].ID, len(sub))
		for _, e := range sub {
			writeXrefStreamLine(&rows, 1, e.Offset, e.Gen)
		}
	}

	var data bytes.Buffer
	w := zlib.NewWriter(&data)
	if _, err := w.Write(rows.Bytes()); err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	var obj bytes.Buffer
	obj.WriteString("<<\n")
	obj.WriteString("  /Type /XRef\n")
	fmt.Fprintf(&obj, "  /Size %d\n", ctx.size())
	fmt.Fprintf(&obj, "  /W [%d %d %d]\n", xrefStreamWidths[0], xrefStreamWidths[1], xrefStreamWidths[2])
	fmt.Fprintf(&obj, "  /Index [%s ]\n", index.String())
	ctx.writeTrailerEntries(&obj)
	obj.WriteString("  /Filter /FlateDecode\n")
	fmt.Fprintf(&obj, "  /Length %d\n", data.Len())
	obj.WriteString(">>\nstream\n")
	obj.Write(data.Bytes())
	obj.WriteString("\nendstream")

	if _, err := fmt.Fprintf(ctx.out, "%d 0 obj\n%s\nendobj\n", id, obj.Bytes()); err != nil {
		return fmt.Errorf("failed to write xref stream: %w", err)
	}
	if _, err := fmt.Fprintf(ctx.out, "startxref\n%d\n%%%%EOF\n", start); err != nil {
		return fmt.Errorf("failed to write xref stream: %w", err)
	}
	return nil
}

// writeXrefStreamLine writes one row of an xref stream.
func writeXrefStreamLine(b *bytes.Buffer, typ byte, offset int64, gen uint16) {
	b.WriteByte(typ)
	b.Write(binary.BigEndian.AppendUint32(nil, uint32(offset)))
	b.Write(binary.BigEndian.AppendUint16(nil, gen))
}

// size is the /Size of the updated document.
func (ctx *context) size() int64 {
	return max(int64(ctx.nextID), ctx.reader.Trailer().Key("Size").Int64())
}

// writeTrailerEntries writes the trailer keys carried over from the
// previous revision together with /Prev.
func (ctx *context) writeTrailerEntries(buf *bytes.Buffer) {
	trailer := ctx.reader.Trailer()

	fmt.Fprintf(buf, "  /Prev %d\n", ctx.reader.XrefInformation.StartPos)

	root := trailer.Key("Root").GetPtr()
	fmt.Fprintf(buf, "  /Root %d %d R\n", root.GetID(), root.GetGen())

	if info := trailer.Key("Info"); !info.IsNull() {
		ptr := info.GetPtr()
		fmt.Fprintf(buf, "  /Info %d %d R\n", ptr.GetID(), ptr.GetGen())
	}

	if id := trailer.Key("ID"); !id.IsNull() && id.Len() == 2 {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(buf, "  /ID [<%s><%s>]\n", id0, id1)
	}
}
