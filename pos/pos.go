// Package pos defines byte positions and half-open spans into source text.
package pos

import "fmt"

// BytePos is a 0-based byte offset into the text handed to the parser.
type BytePos int

// Location is a human-oriented source position.
type Location struct {
	Offset BytePos // byte offset
	Line   int     // 1-based line number
	Column int     // 1-based column, counted in runes
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Span is the half-open byte range [Start, End).
type Span struct {
	Start BytePos
	End   BytePos
}

// NewSpan returns the span [start, end). An inverted range is a defect in
// the caller, not bad input, so it panics.
func NewSpan(start, end BytePos) Span {
	if start > end {
		panic(fmt.Sprintf("pos: inverted span [%d, %d)", start, end))
	}
	return Span{Start: start, End: end}
}

// At returns the zero-length span at p.
func At(p BytePos) Span {
	return Span{Start: p, End: p}
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int {
	return int(s.End - s.Start)
}

// IsEmpty reports whether s covers no bytes.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// ContainsPos reports whether p lies within s. The end offset counts as
// inside so that a cursor sitting right after a token still touches it.
func (s Span) ContainsPos(p BytePos) bool {
	return s.Start <= p && p <= s.End
}

// Merge returns the smallest span covering both s and o.
func (s Span) Merge(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Text returns the slice of src covered by s, clamped to src.
func (s Span) Text(src string) string {
	start, end := int(s.Start), int(s.End)
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return ""
	}
	return src[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
