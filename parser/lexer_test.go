package parser

import (
	"testing"

	"github.com/chazu/fern/pos"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) [ ] { } , . : = | \ ->`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenColon, ":"},
		{TokenEquals, "="},
		{TokenPipe, "|"},
		{TokenBackslash, `\`},
		{TokenArrow, "->"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"let", TokenLet},
		{"in", TokenIn},
		{"type", TokenTypeKeyword},
		{"and", TokenAnd},
		{"if", TokenIf},
		{"then", TokenThen},
		{"else", TokenElse},
		{"match", TokenMatch},
		{"with", TokenWith},
		{"letter", TokenIdentifier},
		{"f'", TokenIdentifier},
		{"f''", TokenIdentifier},
		{"_private", TokenIdentifier},
		{"Some", TokenIdentifier},
		{"x1_y2", TokenIdentifier},
		{"café", TokenIdentifier},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != tc.typ {
			t.Errorf("%q: type = %v, want %v", tc.input, tok.Type, tc.typ)
		}
		if tok.Literal != tc.input {
			t.Errorf("%q: literal = %q", tc.input, tok.Literal)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	tests := []struct {
		input string
		lit   string
	}{
		{"+", "+"},
		{"==", "=="},
		{"/=", "/="},
		{"<=", "<="},
		{">>=", ">>="},
		{"..", ".."},
		{"||", "||"},
		{"#Int+", "#Int+"},
		{"#Int==", "#Int=="},
		{"#Float-", "#Float-"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenOperator {
			t.Errorf("%q: type = %v, want OPERATOR", tc.input, tok.Type)
		}
		if tok.Literal != tc.lit {
			t.Errorf("%q: literal = %q, want %q", tc.input, tok.Literal, tc.lit)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		lit   string
		value string
	}{
		{"42", TokenInteger, "42", ""},
		{"0", TokenInteger, "0", ""},
		{"3.14", TokenFloat, "3.14", ""},
		{"1e10", TokenFloat, "1e10", ""},
		{"1.5e-3", TokenFloat, "1.5e-3", ""},
		{"124b", TokenByte, "124b", "124"},
		{"0b", TokenByte, "0b", "0"},
		{"255b", TokenByte, "255b", "255"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != tc.typ {
			t.Errorf("%q: type = %v, want %v", tc.input, tok.Type, tc.typ)
			continue
		}
		if tok.Literal != tc.lit {
			t.Errorf("%q: literal = %q, want %q", tc.input, tok.Literal, tc.lit)
		}
		if tok.Value != tc.value {
			t.Errorf("%q: value = %q, want %q", tc.input, tok.Value, tc.value)
		}
		if tok.Span != pos.NewSpan(0, pos.BytePos(len(tc.input))) {
			t.Errorf("%q: span = %v", tc.input, tok.Span)
		}
	}
}

func TestLexerNumberFollowedByIdentifier(t *testing.T) {
	tokens := Tokenize("12 bar 3.x 4by")
	want := []TokenType{TokenInteger, TokenIdentifier, TokenInteger, TokenDot, TokenIdentifier, TokenInteger, TokenIdentifier, TokenEOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token[%d] = %v, want %v", i, tokens[i], typ)
		}
	}
}

func TestLexerStringsAndChars(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		value string
	}{
		{`"hello"`, TokenString, "hello"},
		{`""`, TokenString, ""},
		{`"a\nb"`, TokenString, "a\nb"},
		{`"tab\there"`, TokenString, "tab\there"},
		{`"quote \" inside"`, TokenString, `quote " inside`},
		{`"\u{1F600}"`, TokenString, "\U0001F600"},
		{`"こんにちは"`, TokenString, "こんにちは"},
		{`'a'`, TokenChar, "a"},
		{`'\n'`, TokenChar, "\n"},
		{`'\''`, TokenChar, "'"},
		{`'é'`, TokenChar, "é"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != tc.typ {
			t.Errorf("%s: type = %v (%s), want %v", tc.input, tok.Type, tok.Literal, tc.typ)
			continue
		}
		if tok.Value != tc.value {
			t.Errorf("%s: value = %q, want %q", tc.input, tok.Value, tc.value)
		}
		if tok.Literal != tc.input {
			t.Errorf("%s: literal = %q", tc.input, tok.Literal)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		desc  string
	}{
		{`"unterminated`, "unterminated string"},
		{"\"line\nbreak\"", "newline in string"},
		{`"\q"`, "unknown escape"},
		{`'ab'`, "char literal too long"},
		{`''`, "empty char literal"},
		{"/* never closed", "unterminated block comment"},
		{"/** never closed", "unterminated doc comment"},
		{"256b", "byte out of range"},
		{"99999999999999999999", "integer out of range"},
		{"§", "unknown character"},
		{"#Int", "primitive prefix without symbol"},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenError {
			t.Errorf("%s: type = %v, want ERROR", tc.desc, tok.Type)
		}
		if tok.Literal == "" {
			t.Errorf("%s: error token has no message", tc.desc)
		}
	}
}

func TestLexerContinuesAfterError(t *testing.T) {
	tokens := Tokenize("a § b")
	want := []TokenType{TokenIdentifier, TokenError, TokenIdentifier, TokenEOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %v", tokens)
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token[%d] = %v, want %v", i, tokens[i], typ)
		}
	}
	if got := tokens[1].Span; got != pos.NewSpan(2, 4) {
		t.Errorf("error span = %v, want [2, 4)", got)
	}
}

func TestLexerComments(t *testing.T) {
	input := "a // line comment\n/* block /* nested */ */ b //// not doc\nc"
	tokens := Tokenize(input)
	want := []string{"a", "b", "c"}
	if len(tokens) != len(want)+1 {
		t.Fatalf("got %v", tokens)
	}
	for i, lit := range want {
		if tokens[i].Literal != lit {
			t.Errorf("token[%d] = %v, want %q", i, tokens[i], lit)
		}
	}
}

func TestLexerDocComments(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{"/// The identity function", "The identity function"},
		{"///   padded   ", "padded"},
		{"/** Test type */", " Test type "},
		{"/**multi\nline*/", "multi\nline"},
		{"/***/", ""},
	}

	for _, tc := range tests {
		tok := NewLexer(tc.input).NextToken()
		if tok.Type != TokenDocComment {
			t.Errorf("%q: type = %v, want DOC_COMMENT", tc.input, tok.Type)
			continue
		}
		if tok.Value != tc.value {
			t.Errorf("%q: value = %q, want %q", tc.input, tok.Value, tc.value)
		}
	}

	// /**/ is an empty ordinary comment.
	if tok := NewLexer("/**/ x").NextToken(); tok.Type != TokenIdentifier {
		t.Errorf("/**/: got %v, want identifier", tok)
	}
}

func TestLexerLocations(t *testing.T) {
	tokens := Tokenize("let x =\n  \"é\" y")
	tests := []struct {
		lit       string
		line, col int
		offset    pos.BytePos
	}{
		{"let", 1, 1, 0},
		{"x", 1, 5, 4},
		{"=", 1, 7, 6},
		{`"é"`, 2, 3, 10},
		{"y", 2, 7, 15},
	}
	for i, tc := range tests {
		tok := tokens[i]
		if tok.Literal != tc.lit {
			t.Fatalf("token[%d] = %v, want %q", i, tok, tc.lit)
		}
		if tok.Loc.Line != tc.line || tok.Loc.Column != tc.col || tok.Loc.Offset != tc.offset {
			t.Errorf("%q: loc = %+v, want %d:%d@%d", tc.lit, tok.Loc, tc.line, tc.col, tc.offset)
		}
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	l := NewLexer("x")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != TokenEOF {
			t.Fatalf("call %d after end: %v", i, tok)
		}
	}
}
