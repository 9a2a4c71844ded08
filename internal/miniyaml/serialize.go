package miniyaml

import "strings"

const indentUnit = "  "

// Serialize renders a Mapping back into the dialect. Output is stable: two
// space indentation, list items as "- " entries one level below their key,
// record continuation lines four spaces deeper than the dash, multiline
// scalars in block form. Entry order is emitted as stored, so
// Parse(Serialize(m)) preserves both content and order for any Mapping
// within the subset.
//
// Nil values are skipped entirely. An empty Mapping serializes to "".
func Serialize(m Mapping) string {
	var b strings.Builder
	writeMapping(&b, m, 0)
	return b.String()
}

func writeMapping(b *strings.Builder, m Mapping, level int) {
	indent := strings.Repeat(indentUnit, level)
	for _, e := range m {
		switch v := e.Value.(type) {
		case nil:
			// Absent value, no line at all.
		case Scalar:
			writeScalar(b, indent, e.Key, string(v))
		case List:
			b.WriteString(indent)
			b.WriteString(e.Key)
			b.WriteString(":\n")
			writeList(b, v, level)
		case Mapping:
			b.WriteString(indent)
			b.WriteString(e.Key)
			b.WriteString(":\n")
			writeMapping(b, v, level+1)
		}
	}
}

func writeScalar(b *strings.Builder, indent, key, text string) {
	if strings.Contains(text, "\n") {
		// Block form. Lines are emitted verbatim one level deeper; the
		// parser trims them back out, so leading spaces inside the scalar
		// do not survive a round trip.
		b.WriteString(indent)
		b.WriteString(key)
		b.WriteString(": |\n")
		lineIndent := indent + indentUnit
		for _, line := range strings.Split(text, "\n") {
			b.WriteString(lineIndent)
			b.WriteString(line)
			b.WriteString("\n")
		}
		return
	}
	b.WriteString(indent)
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(quote(text))
	b.WriteString("\n")
}

func writeList(b *strings.Builder, l List, level int) {
	itemIndent := strings.Repeat(indentUnit, level+1)
	// Continuation fields sit four spaces deeper than the dash, which is
	// what the parser requires to merge them back into the record.
	contIndent := itemIndent + "    "
	for _, item := range l {
		if rec, ok := item.(Mapping); ok && len(rec) > 0 {
			for i, f := range rec {
				if i == 0 {
					b.WriteString(itemIndent)
					b.WriteString("- ")
				} else {
					b.WriteString(contIndent)
				}
				b.WriteString(f.Key)
				b.WriteString(": ")
				b.WriteString(quote(scalarText(f.Value)))
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(itemIndent)
		b.WriteString("- ")
		b.WriteString(quote(scalarText(item)))
		b.WriteString("\n")
	}
}

// scalarText returns the scalar's text, or "" for any non-scalar shape.
// List elements outside the subset degrade to empty rather than failing.
func scalarText(v Value) string {
	if s, ok := v.(Scalar); ok {
		return string(s)
	}
	return ""
}

// quote wraps a single-line value in double quotes. Embedded quote
// characters are NOT escaped. The subset parser strips exactly one outer
// pair so such values survive our own round trip, but the emitted line is
// not valid strict YAML and external tooling may misread it. Known
// limitation, kept for output compatibility with the files already in
// content repositories.
func quote(s string) string {
	return `"` + s + `"`
}
