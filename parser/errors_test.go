package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Failed parses: error kind, message and the partial tree
// ---------------------------------------------------------------------------

func TestParserErrorsKeepPartialTree(t *testing.T) {
	tests := []struct {
		desc    string
		input   string
		kind    ErrorKind
		msg     string // substring of the message
		partial string // ast.Dump of the partial tree, "<nil>" for none
	}{
		{
			"missing in",
			"let x = 1",
			SyntaxError,
			"expected `in` or `and`, found end of block",
			"(let (bind x 1) <nil>)",
		},
		{
			"missing field name",
			"test.",
			SyntaxError,
			"expected field name",
			`(proj test "")`,
		},
		{
			"missing field name mid block",
			"\ntest.\ntest\n",
			SyntaxError,
			"expected field name",
			`(block (proj test "") test)`,
		},
		{
			"unknown character",
			"§",
			LexicalError,
			"",
			"<nil>",
		},
		{
			"unmatched closer",
			"a)",
			LayoutError,
			"unmatched `)`",
			"a",
		},
		{
			"empty input",
			"",
			SyntaxError,
			"expected expression, found end of input",
			"<nil>",
		},
		{
			"match without arms",
			"match x with",
			SyntaxError,
			"expected `|`",
			"(match x)",
		},
		{
			"arm without body",
			"match x with | A -> 1 | B ->",
			SyntaxError,
			"expected expression, found end of block",
			"(match x (alt (ctor A) 1))",
		},
		{
			"missing else",
			"if a then b",
			SyntaxError,
			"expected `else`",
			"(if a b <nil>)",
		},
		{
			"operator in array",
			"[1, 2, +]",
			SyntaxError,
			"expected expression, found operator `+`",
			"(array 1 2)",
		},
		{
			"record field without value",
			"{ x = 1, y = }",
			SyntaxError,
			"expected expression",
			"(record (field x 1))",
		},
		{
			"unclosed argument",
			"f 1 (",
			SyntaxError,
			"found end of block",
			"(app f 1)",
		},
		{
			"dangling operator",
			"1 +",
			SyntaxError,
			"expected expression",
			"1",
		},
		{
			"missing binding equals",
			"let f x in f",
			SyntaxError,
			"expected `=`, found `in`",
			"(let (bind f (params x) <nil>) <nil>)",
		},
		{
			"type name must be upper case",
			"type t = Int in 1",
			SyntaxError,
			"expected type name, found identifier `t`",
			"<nil>",
		},
	}

	for _, tc := range tests {
		e, err := Parse(tc.input)
		if err == nil {
			t.Errorf("%s: expected error, got %s", tc.desc, ast.Dump(e))
			continue
		}
		pe, ok := AsError(err)
		if !ok {
			t.Errorf("%s: error %T is not *Error", tc.desc, err)
			continue
		}
		if pe.Kind != tc.kind {
			t.Errorf("%s: kind = %v, want %v (%s)", tc.desc, pe.Kind, tc.kind, pe.Message)
		}
		if !strings.Contains(pe.Message, tc.msg) {
			t.Errorf("%s: message = %q, want it to contain %q", tc.desc, pe.Message, tc.msg)
		}
		var got string
		if e == nil {
			got = "<nil>"
		} else {
			got = ast.Dump(e)
		}
		if got != tc.partial {
			t.Errorf("%s: partial tree\n got %s\nwant %s", tc.desc, got, tc.partial)
		}
	}
}

func TestParserMissingFieldSpan(t *testing.T) {
	e, err := Parse("test.")
	if err == nil {
		t.Fatal("expected error")
	}
	proj, ok := e.(*ast.Projection)
	if !ok {
		t.Fatalf("partial = %T, want *ast.Projection", e)
	}
	if proj.Span() != pos.At(0) {
		t.Errorf("projection span = %v, want [0, 0)", proj.Span())
	}
	if pe, _ := AsError(err); pe.Span != pos.NewSpan(5, 5) {
		t.Errorf("error span = %v, want the end of the block at 5", pe.Span)
	}

	e, _ = Parse("\ntest.\ntest\n")
	block, ok := e.(*ast.Block)
	if !ok || len(block.Exprs) != 2 {
		t.Fatalf("partial = %s, want a block of two", ast.Dump(e))
	}
	if got := block.Exprs[0].Span(); got != pos.At(1) {
		t.Errorf("projection span = %v, want [1, 1)", got)
	}
}

func TestParserReportsOnlyFirstError(t *testing.T) {
	e, err := Parse("test.\n§")
	pe, ok := AsError(err)
	if !ok {
		t.Fatalf("err = %v", err)
	}
	if pe.Kind != SyntaxError {
		t.Errorf("kind = %v, want the projection's syntax error", pe.Kind)
	}
	if got := ast.Dump(e); got != `(block (proj test ""))` {
		t.Errorf("partial = %s", got)
	}
}

func TestParserErrorsExpected(t *testing.T) {
	_, err := Parse("let x = 1")
	pe, _ := AsError(err)
	if pe == nil {
		t.Fatal("expected error")
	}
	want := []string{"`in`", "`and`"}
	if len(pe.Expected) != len(want) {
		t.Fatalf("expected = %v, want %v", pe.Expected, want)
	}
	for i := range want {
		if pe.Expected[i] != want[i] {
			t.Errorf("expected[%d] = %q, want %q", i, pe.Expected[i], want[i])
		}
	}
}

func TestAsErrorUnwraps(t *testing.T) {
	_, err := Parse("a)")
	wrapped := fmt.Errorf("parse main.fern: %w", err)
	pe, ok := AsError(wrapped)
	if !ok || pe.Kind != LayoutError {
		t.Errorf("AsError(%v) = %v, %v", wrapped, pe, ok)
	}
	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("AsError accepted a plain error")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{LexicalError, "lexical error"},
		{SyntaxError, "syntax error"},
		{LayoutError, "layout error"},
		{ErrorKind(9), "ErrorKind(9)"},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("%d: got %q, want %q", tc.kind, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// FormatError
// ---------------------------------------------------------------------------

func TestFormatError(t *testing.T) {
	src := "a\nb)\nc"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "layout error at 2:2: unmatched `)`\n" +
		"\n" +
		"   1 | a\n" +
		"   2 | b)\n" +
		"     |  ^\n" +
		"   3 | c\n"
	if got := FormatError(err, src); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatErrorWithName(t *testing.T) {
	src := "f 99999999999999999999"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected error")
	}
	got := FormatErrorWithName(err, "main.fern", src)
	if !strings.HasPrefix(got, "lexical error in main.fern at 1:3: ") {
		t.Errorf("header: %q", got)
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	last := lines[len(lines)-1]
	if want := "     |   " + strings.Repeat("^", 20); last != want {
		t.Errorf("caret line = %q, want %q", last, want)
	}
}

func TestFormatErrorPlainError(t *testing.T) {
	if got := FormatError(errors.New("boom"), "x"); got != "boom" {
		t.Errorf("got %q", got)
	}
}

func TestParserNestingLimit(t *testing.T) {
	nested := func(open, inner, close string, n int) string {
		return strings.Repeat(open, n) + inner + strings.Repeat(close, n)
	}

	e, err := Parse(nested("(", "x", ")", 1000))
	if err != nil || ast.Dump(e) != "x" {
		t.Fatalf("1000 levels: %s, %v", ast.Dump(e), err)
	}

	tests := []struct {
		desc  string
		parse func() error
	}{
		{"expression", func() error {
			_, err := Parse(nested("(", "x", ")", maxNestLev+1))
			return err
		}},
		{"lambda chain", func() error {
			_, err := Parse(strings.Repeat(`\x -> `, maxNestLev+1) + "x")
			return err
		}},
		{"type", func() error {
			_, err := ParseType(nested("(", "Int", ")", maxNestLev+1))
			return err
		}},
		{"arrow chain", func() error {
			_, err := ParseType(strings.Repeat("Int -> ", maxNestLev+1) + "Int")
			return err
		}},
		{"pattern", func() error {
			_, err := Parse("match x with | " + nested("(", "y", ")", maxNestLev+1) + " -> y")
			return err
		}},
	}
	for _, tc := range tests {
		pe, ok := AsError(tc.parse())
		if !ok {
			t.Errorf("%s: expected a parse error", tc.desc)
			continue
		}
		if pe.Kind != SyntaxError || pe.Message != "expression nested too deeply" {
			t.Errorf("%s: got %v %q", tc.desc, pe.Kind, pe.Message)
		}
	}
}
