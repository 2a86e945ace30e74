package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chazu/fern/pos"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	LexicalError ErrorKind = iota // input matched no token rule
	SyntaxError                   // tokens violate the grammar
	LayoutError                   // indentation or delimiters could not be resolved
)

var errorKindNames = map[ErrorKind]string{
	LexicalError: "lexical error",
	SyntaxError:  "syntax error",
	LayoutError:  "layout error",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is the diagnostic returned by a failed parse. A parse produces at
// most one, describing the first failure.
type Error struct {
	Kind     ErrorKind
	Span     pos.Span
	Message  string
	Expected []string // what the parser would have accepted, when known
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Span.Start, e.Message)
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// FormatError renders err with a caret snippet of src. Errors that are not
// parse errors render as their message.
func FormatError(err error, src string) string {
	return FormatErrorWithName(err, "", src)
}

// FormatErrorWithName is FormatError with a file name in the header:
//
//	syntax error in main.fern at 3:12: expected `in`, found end of block
//
//	   2 | let x = 1
//	   3 | let y = x 1
//	     |            ^
//	   4 | y
func FormatErrorWithName(err error, name, src string) string {
	pe, ok := AsError(err)
	if !ok {
		return err.Error()
	}
	idx := pos.NewLineIndex(src)
	loc := idx.Location(pe.Span.Start)

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %s: %s\n\n", pe.Kind, name, loc, pe.Message)
	} else {
		fmt.Fprintf(&b, "%s at %s: %s\n\n", pe.Kind, loc, pe.Message)
	}
	if loc.Line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", loc.Line-1, idx.LineText(loc.Line-1))
	}
	text := idx.LineText(loc.Line)
	fmt.Fprintf(&b, "%4d | %s\n", loc.Line, text)
	fmt.Fprintf(&b, "     | %s%s\n", strings.Repeat(" ", loc.Column-1), carets(pe.Span, loc, idx, text))
	if loc.Line < idx.LineCount() {
		fmt.Fprintf(&b, "%4d | %s\n", loc.Line+1, idx.LineText(loc.Line+1))
	}
	return b.String()
}

// carets underlines the part of span that lies on its first line, with at
// least one caret.
func carets(span pos.Span, start pos.Location, idx *pos.LineIndex, line string) string {
	n := 1
	if end := idx.Location(span.End); end.Line == start.Line && end.Column > start.Column {
		n = end.Column - start.Column
	} else if end.Line > start.Line {
		n = utf8.RuneCountInString(line) - start.Column + 1
	}
	if n < 1 {
		n = 1
	}
	return strings.Repeat("^", n)
}
