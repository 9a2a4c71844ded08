package miniyaml

import "strings"

// parserState identifies what the line scan is in the middle of. The parser
// is a single-pass state machine; the only lookahead it ever needs is "is
// this line more indented than the block reference".
type parserState int

const (
	stateDefault parserState = iota
	stateInList
	stateInRecord
	stateInBlockScalar
)

// accumulator threads the in-progress parse through the line scan. It is
// created fresh per Parse call; nothing is shared between calls.
type accumulator struct {
	state  parserState
	result Mapping

	// Block scalar accumulation. blockIndent is the indentation of the
	// `key: |` line itself; lines more indented than it belong to the block.
	blockKey    string
	blockIndent int
	blockLines  []string

	// List accumulation. listKey is the pending key the list commits under;
	// record is the currently open list record, if any.
	listKey string
	list    List
	record  Mapping
}

// Parse reads the restricted YAML dialect into an ordered Mapping. The root
// is always a Mapping, never a bare scalar or list.
//
// Parse never fails. Unrecognized line shapes contribute nothing and
// out-of-subset constructs (nested lists, flow collections) yield a
// best-effort partial tree; content loading must not break on a malformed
// file edited by hand.
func Parse(text string) Mapping {
	acc := &accumulator{result: Mapping{}}
	for _, line := range strings.Split(text, "\n") {
		acc.feed(line)
	}
	acc.finish()
	return acc.result
}

func (acc *accumulator) feed(line string) {
	if acc.state == stateInBlockScalar {
		if acc.feedBlock(line) {
			return
		}
		// The line closed the block and still needs normal handling.
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}

	if rest, ok := strings.CutPrefix(trimmed, "- "); ok {
		acc.feedListItem(rest)
		return
	}

	if !strings.Contains(trimmed, ":") {
		// Unrecognized line shape; contributes nothing.
		return
	}

	indent := indentOf(line)

	// A key:value line indented at least four columns while a record is
	// open merges into that record instead of starting anything new.
	if acc.record != nil && indent >= 4 {
		key, value := splitKeyValue(trimmed)
		acc.record = acc.record.Set(key, Scalar(unquote(value)))
		return
	}

	// A key line back at column zero closes any accumulating list.
	if indent == 0 {
		acc.commitList()
	}

	if strings.HasSuffix(trimmed, "|") {
		key, _ := splitKeyValue(trimmed)
		acc.state = stateInBlockScalar
		acc.blockKey = key
		acc.blockIndent = indent
		acc.blockLines = nil
		return
	}

	key, value := splitKeyValue(trimmed)
	if value == "" {
		// Pending key: list items that follow attach to it.
		acc.state = stateInList
		acc.listKey = key
		acc.list = List{}
		acc.record = nil
		return
	}
	acc.result = acc.result.Set(key, Scalar(unquote(value)))
}

// feedBlock handles one line while in block-scalar mode. It reports whether
// the line was consumed; a false return means the line ended the block and
// must be re-dispatched as a normal line.
func (acc *accumulator) feedBlock(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		// Blank lines inside a block contribute a literal newline.
		acc.blockLines = append(acc.blockLines, "")
		return true
	}
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if indentOf(line) > acc.blockIndent {
		acc.blockLines = append(acc.blockLines, trimmed)
		return true
	}
	acc.closeBlock()
	return false
}

func (acc *accumulator) closeBlock() {
	text := strings.TrimSpace(strings.Join(acc.blockLines, "\n"))
	acc.result = acc.result.Set(acc.blockKey, Scalar(text))
	acc.blockKey = ""
	acc.blockLines = nil

	// A block can interrupt list accumulation; restore that state so items
	// after the block still attach to the open list.
	switch {
	case acc.record != nil:
		acc.state = stateInRecord
	case acc.listKey != "":
		acc.state = stateInList
	default:
		acc.state = stateDefault
	}
}

func (acc *accumulator) feedListItem(rest string) {
	if !strings.Contains(rest, ":") {
		// Plain entry: stored as a single-field {text: ...} record.
		text := unquote(strings.TrimSpace(rest))
		acc.list = append(acc.list, Mapping{{Key: "text", Value: Scalar(text)}})
		return
	}

	// key:value form starts a new record; flush any open one first.
	acc.flushRecord()
	key, value := splitKeyValue(rest)
	acc.record = Mapping{{Key: key, Value: Scalar(unquote(value))}}
	acc.state = stateInRecord
}

// flushRecord appends the open record, if it has at least one field, to the
// accumulating list.
func (acc *accumulator) flushRecord() {
	if len(acc.record) > 0 {
		acc.list = append(acc.list, acc.record)
	}
	acc.record = nil
	if acc.state == stateInRecord {
		acc.state = stateInList
	}
}

// commitList closes the accumulating list and stores it under the pending
// key. A pending key with no items commits an empty list.
func (acc *accumulator) commitList() {
	if acc.state != stateInList && acc.state != stateInRecord {
		return
	}
	acc.flushRecord()
	if acc.listKey != "" {
		acc.result = acc.result.Set(acc.listKey, acc.list)
	}
	acc.listKey = ""
	acc.list = nil
	acc.state = stateDefault
}

// finish closes whatever is still open at end of input.
func (acc *accumulator) finish() {
	if acc.state == stateInBlockScalar {
		acc.closeBlock()
	}
	acc.commitList()
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// splitKeyValue splits a key:value line on the first colon. Both halves are
// trimmed; the value keeps any further colons.
func splitKeyValue(s string) (key, value string) {
	key, value, _ = strings.Cut(s, ":")
	return strings.TrimSpace(key), strings.TrimSpace(value)
}

// unquote strips exactly one matching pair of surrounding quote characters,
// double or single. No escape sequences are processed; the dialect has none.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
