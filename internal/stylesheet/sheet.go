package stylesheet

import (
	"fmt"
	"strings"

	"github.com/five82/stylefix/internal/fixes"
)

// Marker returns the comment that opens the block owned by fix id.
func Marker(id string) string {
	return fmt.Sprintf("/* Fix: %s */", id)
}

// Block renders the marker-delimited rule block for a css fix:
//
//	/* Fix: <id> */
//	<selector> {
//	  <property>: <value> !important;
//	}
func Block(fix *fixes.Fix) string {
	var b strings.Builder
	b.WriteString(Marker(fix.ID))
	b.WriteString("\n")
	b.WriteString(fix.Selector())
	b.WriteString(" {\n")
	for _, decl := range fix.Declarations() {
		b.WriteString("  ")
		b.WriteString(decl)
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

type entry struct {
	id    string
	block string
}

// Sheet is an ordered mapping from fix id to the rule block that fix owns.
// Rendering concatenates blocks in insertion order; removal is by key, so a
// rollback never has to parse the rendered text. The zero value is ready to
// use. Sheet is not safe for concurrent use; the applier serialises access.
type Sheet struct {
	entries []entry
}

// Append adds block for id at the end of the sheet. An id that is already
// present loses its previous block, so the last-applied values are the ones
// in force. Text-append injectors keep the stale block in place and add a
// second one after it; the cascade result is the same, but here rollback
// removes every trace of the id at once.
func (s *Sheet) Append(id, block string) {
	s.Remove(id)
	s.entries = append(s.entries, entry{id: id, block: block})
}

// Remove drops the block owned by id and reports whether one existed.
func (s *Sheet) Remove(id string) bool {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether id owns a block.
func (s *Sheet) Has(id string) bool {
	for _, e := range s.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

// Len returns the number of blocks.
func (s *Sheet) Len() int { return len(s.entries) }

// IDs returns block owners in render order.
func (s *Sheet) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.id
	}
	return ids
}

// Reset empties the sheet.
func (s *Sheet) Reset() { s.entries = nil }

// Clone returns an independent copy.
func (s *Sheet) Clone() *Sheet {
	dup := &Sheet{entries: make([]entry, len(s.entries))}
	copy(dup.entries, s.entries)
	return dup
}

// Render returns the text to place in the style node.
func (s *Sheet) Render() string {
	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(e.block)
	}
	return b.String()
}

// RemoveMarked strips the block owned by id out of free-form style text:
// everything before the marker is kept, the marker and the text up to and
// including the first closing brace after it are dropped, and everything
// after that brace is kept. It is only correct when each block is a single
// brace-balanced unit. Used for style nodes this process did not render.
func RemoveMarked(text, id string) (string, bool) {
	marker := Marker(id)
	idx := strings.Index(text, marker)
	if idx < 0 {
		return text, false
	}
	before := text[:idx]
	rest := text[idx+len(marker):]
	after := ""
	if brace := strings.IndexByte(rest, '}'); brace >= 0 {
		after = strings.TrimPrefix(rest[brace+1:], "\n")
	}
	return before + after, true
}

// MarkedIDs lists the fix ids whose markers appear in text, in order.
func MarkedIDs(text string) []string {
	const open = "/* Fix: "
	var ids []string
	for {
		idx := strings.Index(text, open)
		if idx < 0 {
			return ids
		}
		text = text[idx+len(open):]
		end := strings.Index(text, " */")
		if end < 0 {
			return ids
		}
		ids = append(ids, text[:end])
		text = text[end:]
	}
}
