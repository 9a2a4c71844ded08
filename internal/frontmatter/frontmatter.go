// Package frontmatter splits markdown documents into their leading metadata
// block and free-text body, and composes the two back into a single file.
// The metadata block is delimited by lines of three hyphens and parsed with
// the miniyaml codec, which keeps it hand-editable inside version control.
package frontmatter

import (
	"regexp"
	"strings"

	"github.com/repstack/repstack/internal/miniyaml"
)

const delimiter = "---"

// pattern matches "delimiter line, metadata block, delimiter line, body".
// The block between the delimiters must span at least one line, so a
// document opening with two adjacent delimiter lines does not match.
var pattern = regexp.MustCompile(`(?s)^---\s*\r?\n(.*?)\r?\n---\s*\r?\n(.*)$`)

// Document is a markdown file decomposed into its two halves.
type Document struct {
	Meta miniyaml.Mapping
	Body string
}

// Split decomposes text into metadata and body. The body comes back with
// surrounding whitespace trimmed. A document that does not open with a
// frontmatter block degrades to empty metadata with the body carrying the
// full text unchanged; splitting never fails.
func Split(text string) Document {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return Document{Meta: miniyaml.Mapping{}, Body: text}
	}
	return Document{
		Meta: miniyaml.Parse(m[1]),
		Body: strings.TrimSpace(m[2]),
	}
}

// Compose renders metadata and body back into a single document: opening
// delimiter, serialized metadata, closing delimiter, one blank line, then
// the body verbatim. Output always begins with a delimiter line, even for
// empty metadata.
func Compose(meta miniyaml.Mapping, body string) string {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.WriteString(miniyaml.Serialize(meta))
	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}
