package stamp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/digitorus/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// writeValue serializes v as it appears inside object parentID. Values
// resolved from another object are written as references; values stored
// directly in the parent are written inline.
func writeValue(buf *bytes.Buffer, parentID uint32, v pdf.Value) error {
	if ptr := v.GetPtr(); ptr.GetID() != 0 && ptr.GetID() != parentID {
		fmt.Fprintf(buf, "%d %d R", ptr.GetID(), ptr.GetGen())
		return nil
	}

	switch v.Kind() {
	case pdf.Null:
		buf.WriteString("null")
	case pdf.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case pdf.Integer:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case pdf.Real:
		buf.WriteString(strconv.FormatFloat(v.Float64(), 'f', -1, 64))
	case pdf.String:
		buf.WriteString("<" + hex.EncodeToString([]byte(v.RawString())) + ">")
	case pdf.Name:
		buf.WriteString(pdfName(v.Name()))
	case pdf.Array:
		buf.WriteString("[")
		for i := 0; i < v.Len(); i++ {
			buf.WriteString(" ")
			if err := writeValue(buf, parentID, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteString(" ]")
	case pdf.Dict:
		buf.WriteString("<<")
		for _, key := range v.Keys() {
			buf.WriteString(" " + pdfName(key) + " ")
			if err := writeValue(buf, parentID, v.Key(key)); err != nil {
				return err
			}
		}
		buf.WriteString(" >>")
	case pdf.Stream:
		return errors.New("stream cannot be stored as a direct object")
	default:
		return fmt.Errorf("unknown value kind %v", v.Kind())
	}
	return nil
}

// pdfName writes a name object, escaping delimiters and bytes outside the
// printable ASCII range.
func pdfName(name string) string {
	var sb strings.Builder
	sb.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || strings.IndexByte("#()<>[]{}/%", c) >= 0 {
			fmt.Fprintf(&sb, "#%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// pdfString encodes a text string: literal for ASCII, UTF-16BE with a byte
// order mark in hex form otherwise.
func pdfString(text string) string {
	if !isASCII(text) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		res, _, err := transform.String(enc, text)
		if err == nil {
			return "<" + hex.EncodeToString([]byte(res)) + ">"
		}
	}

	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
