package pos

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// LineIndex maps byte offsets in a source text to lines and columns.
// It is read-only after construction and safe for concurrent use.
type LineIndex struct {
	src    string
	starts []BytePos // byte offset of each line start
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src string) *LineIndex {
	starts := []BytePos{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, BytePos(i+1))
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// LineCount returns the number of lines in the source.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// line returns the 0-based line containing p.
func (li *LineIndex) line(p BytePos) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > p }) - 1
}

func (li *LineIndex) clamp(p BytePos) BytePos {
	if p < 0 {
		return 0
	}
	if int(p) > len(li.src) {
		return BytePos(len(li.src))
	}
	return p
}

// Location returns the line and rune column of p.
func (li *LineIndex) Location(p BytePos) Location {
	p = li.clamp(p)
	line := li.line(p)
	start := li.starts[line]
	col := utf8.RuneCountInString(li.src[start:p]) + 1
	return Location{Offset: p, Line: line + 1, Column: col}
}

// LineText returns the text of the 1-based line without its terminator.
func (li *LineIndex) LineText(line int) string {
	if line < 1 || line > len(li.starts) {
		return ""
	}
	start := int(li.starts[line-1])
	end := len(li.src)
	if line < len(li.starts) {
		end = int(li.starts[line]) - 1
	}
	text := li.src[start:end]
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
	}
	return text
}

// UTF16 returns the 0-based line and UTF-16 code unit column of p, the
// coordinate system used by the language server protocol.
func (li *LineIndex) UTF16(p BytePos) (line, character int) {
	p = li.clamp(p)
	line = li.line(p)
	for _, r := range li.src[li.starts[line]:p] {
		character += utf16.RuneLen(r)
	}
	return line, character
}

// OffsetUTF16 converts a 0-based line and UTF-16 column back to a byte
// offset. Out-of-range coordinates are clamped to the nearest valid offset.
func (li *LineIndex) OffsetUTF16(line, character int) BytePos {
	if line < 0 {
		return 0
	}
	if line >= len(li.starts) {
		return BytePos(len(li.src))
	}
	off := int(li.starts[line])
	units := 0
	for off < len(li.src) && units < character {
		r, size := utf8.DecodeRuneInString(li.src[off:])
		if r == '\n' {
			break
		}
		units += utf16.RuneLen(r)
		off += size
	}
	return BytePos(off)
}
