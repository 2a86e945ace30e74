package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Lexer: raw tokens, no layout
// ---------------------------------------------------------------------------

const eof = -1

// Lexer tokenizes fern source code. It never stops early: characters that
// match no rule become TokenError tokens and lexing resumes after them.
type Lexer struct {
	input   string
	pos     int  // offset of ch
	readPos int  // offset after ch
	ch      rune // current character, eof at end of input
	line    int  // line of ch (1-based)
	col     int  // column of ch in runes (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Tokenize returns every token of input up to and including EOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		t := l.NextToken()
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			return tokens
		}
	}
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else if l.ch != eof {
		l.col++
	}
	if l.readPos >= len(l.input) {
		l.ch = eof
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the character after ch without consuming it.
func (l *Lexer) peekChar() rune {
	return l.peekAt(0)
}

// peekAt returns the character n runes after the one following ch.
func (l *Lexer) peekAt(n int) rune {
	off := l.readPos
	for {
		if off >= len(l.input) {
			return eof
		}
		r, size := utf8.DecodeRuneInString(l.input[off:])
		if n == 0 {
			return r
		}
		off += size
		n--
	}
}

func (l *Lexer) location() pos.Location {
	return pos.Location{Offset: pos.BytePos(l.pos), Line: l.line, Column: l.col}
}

// token builds a token spanning from start to the current position.
func (l *Lexer) token(typ TokenType, start pos.Location) Token {
	end := l.location()
	return Token{
		Type:    typ,
		Literal: l.input[start.Offset:end.Offset],
		Span:    pos.NewSpan(start.Offset, end.Offset),
		Loc:     start,
		End:     end,
	}
}

// errorToken builds a lexical error spanning from start to the current position.
func (l *Lexer) errorToken(start pos.Location, format string, args ...any) Token {
	t := l.token(TokenError, start)
	t.Literal = fmt.Sprintf(format, args...)
	return t
}

// NextToken returns the next token. After the end of input it keeps
// returning EOF.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()
		if l.ch != '/' {
			break
		}
		if l.peekChar() == '/' {
			if l.peekAt(1) == '/' && l.peekAt(2) != '/' {
				return l.readLineDoc()
			}
			l.skipLineComment()
			continue
		}
		if l.peekChar() == '*' {
			if l.peekAt(1) == '*' && l.peekAt(2) != '/' {
				return l.readBlockDoc()
			}
			if t, ok := l.skipBlockComment(); !ok {
				return t
			}
			continue
		}
		break
	}

	start := l.location()

	switch {
	case l.ch == eof:
		return Token{Type: TokenEOF, Span: pos.At(start.Offset), Loc: start, End: start}

	case l.ch == '(':
		l.readChar()
		return l.token(TokenLParen, start)

	case l.ch == ')':
		l.readChar()
		return l.token(TokenRParen, start)

	case l.ch == '{':
		l.readChar()
		return l.token(TokenLBrace, start)

	case l.ch == '}':
		l.readChar()
		return l.token(TokenRBrace, start)

	case l.ch == '[':
		l.readChar()
		return l.token(TokenLBracket, start)

	case l.ch == ']':
		l.readChar()
		return l.token(TokenRBracket, start)

	case l.ch == ',':
		l.readChar()
		return l.token(TokenComma, start)

	case l.ch == '"':
		return l.readString(start)

	case l.ch == '\'':
		return l.readCharLiteral(start)

	case isDigit(l.ch):
		return l.readNumber(start)

	case isIdentStart(l.ch):
		return l.readIdentifierOrKeyword(start)

	case l.ch == '#' && unicode.IsUpper(l.peekChar()):
		return l.readPrimitiveOperator(start)

	case IsSymbolChar(l.ch):
		return l.readSymbol(start)

	default:
		ch := l.ch
		l.readChar()
		return l.errorToken(start, "unexpected character %q", ch)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch != eof && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != eof {
		l.readChar()
	}
}

// skipBlockComment skips /* ... */. Comments nest. An unterminated
// comment yields an error token.
func (l *Lexer) skipBlockComment() (Token, bool) {
	start := l.location()
	l.readChar() // '/'
	l.readChar() // '*'
	depth := 1
	for depth > 0 {
		switch {
		case l.ch == eof:
			return l.errorToken(start, "unterminated block comment"), false
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			depth++
		case l.ch == '*' && l.peekChar() == '/':
			l.readChar()
			l.readChar()
			depth--
		default:
			l.readChar()
		}
	}
	return Token{}, true
}

// readLineDoc reads a /// comment. Value is the text with surrounding
// whitespace removed.
func (l *Lexer) readLineDoc() Token {
	start := l.location()
	l.skipLineComment()
	t := l.token(TokenDocComment, start)
	t.Literal = strings.TrimRight(t.Literal, "\r")
	t.Span = pos.NewSpan(start.Offset, start.Offset+pos.BytePos(len(t.Literal)))
	t.Value = strings.TrimSpace(t.Literal[len("///"):])
	return t
}

// readBlockDoc reads a /** ... */ comment. Value is the raw text between
// the delimiters; trimming is left to the parser.
func (l *Lexer) readBlockDoc() Token {
	start := l.location()
	for i := 0; i < 3; i++ {
		l.readChar()
	}
	textStart := l.pos
	for {
		if l.ch == eof {
			return l.errorToken(start, "unterminated doc comment")
		}
		if l.ch == '*' && l.peekChar() == '/' {
			break
		}
		l.readChar()
	}
	text := l.input[textStart:l.pos]
	l.readChar()
	l.readChar()
	t := l.token(TokenDocComment, start)
	t.Value = text
	return t
}

// readIdentifierOrKeyword reads an identifier, including trailing quotes,
// and classifies reserved words.
func (l *Lexer) readIdentifierOrKeyword(start pos.Location) Token {
	for isIdentPart(l.ch) {
		l.readChar()
	}
	for l.ch == '\'' {
		l.readChar()
	}
	t := l.token(TokenIdentifier, start)
	if kw, ok := reservedWords[t.Literal]; ok {
		t.Type = kw
	}
	return t
}

// readPrimitiveOperator reads #TypeName followed by a symbol run, e.g. #Int+.
func (l *Lexer) readPrimitiveOperator(start pos.Location) Token {
	l.readChar() // '#'
	for isIdentPart(l.ch) {
		l.readChar()
	}
	symbols := 0
	for IsSymbolChar(l.ch) {
		l.readChar()
		symbols++
	}
	if symbols == 0 {
		return l.errorToken(start, "expected operator symbol after %q", l.input[start.Offset:l.pos])
	}
	return l.token(TokenOperator, start)
}

// readSymbol reads a run of symbol characters. The run stops before a
// comment opener so that a+//x lexes as a + comment.
func (l *Lexer) readSymbol(start pos.Location) Token {
	for IsSymbolChar(l.ch) {
		if l.pos > int(start.Offset) && l.ch == '/' && (l.peekChar() == '/' || l.peekChar() == '*') {
			break
		}
		l.readChar()
	}
	t := l.token(TokenOperator, start)
	if p, ok := symbolPunctuation[t.Literal]; ok {
		t.Type = p
	}
	return t
}

// readNumber reads an integer, float or byte literal.
func (l *Lexer) readNumber(start pos.Location) Token {
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(1))) {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	if isFloat {
		t := l.token(TokenFloat, start)
		if _, err := strconv.ParseFloat(t.Literal, 64); err != nil {
			return l.errorToken(start, "invalid float literal %s", t.Literal)
		}
		return t
	}

	if l.ch == 'b' && !isIdentPart(l.peekChar()) && l.peekChar() != '\'' {
		digits := l.input[start.Offset:l.pos]
		l.readChar()
		n, err := strconv.ParseUint(digits, 10, 8)
		if err != nil {
			return l.errorToken(start, "byte literal %s out of range", digits)
		}
		t := l.token(TokenByte, start)
		t.Value = strconv.FormatUint(n, 10)
		return t
	}

	t := l.token(TokenInteger, start)
	if _, err := strconv.ParseInt(t.Literal, 10, 64); err != nil {
		return l.errorToken(start, "integer literal %s out of range", t.Literal)
	}
	return t
}

// readString reads a double-quoted string. Value holds the decoded text.
func (l *Lexer) readString(start pos.Location) Token {
	l.readChar() // opening quote
	var b strings.Builder
	var bad string
	for {
		switch l.ch {
		case eof, '\n':
			return l.errorToken(start, "unterminated string literal")
		case '"':
			l.readChar()
			if bad != "" {
				return l.errorToken(start, "%s", bad)
			}
			t := l.token(TokenString, start)
			t.Value = b.String()
			return t
		case '\\':
			r, err := l.readEscape()
			if err != "" && bad == "" {
				bad = err
			}
			b.WriteRune(r)
		default:
			b.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readCharLiteral reads a character literal such as 'a' or '\n'.
func (l *Lexer) readCharLiteral(start pos.Location) Token {
	l.readChar() // opening quote
	var r rune
	switch l.ch {
	case eof, '\n', '\'':
		return l.errorToken(start, "empty or unterminated char literal")
	case '\\':
		var err string
		r, err = l.readEscape()
		if err != "" {
			l.skipTo('\'')
			return l.errorToken(start, "%s", err)
		}
	default:
		r = l.ch
		l.readChar()
	}
	if l.ch != '\'' {
		l.skipTo('\'')
		return l.errorToken(start, "unterminated char literal")
	}
	l.readChar()
	t := l.token(TokenChar, start)
	t.Value = string(r)
	return t
}

// skipTo consumes up to and including the next stop character on this line.
func (l *Lexer) skipTo(stop rune) {
	for l.ch != eof && l.ch != '\n' {
		if l.ch == stop {
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readEscape decodes an escape sequence starting at the backslash. It
// returns a non-empty message for an invalid escape.
func (l *Lexer) readEscape() (rune, string) {
	l.readChar() // '\'
	c := l.ch
	switch c {
	case eof:
		return 0, "unterminated escape sequence"
	case 'n':
		l.readChar()
		return '\n', ""
	case 't':
		l.readChar()
		return '\t', ""
	case 'r':
		l.readChar()
		return '\r', ""
	case '0':
		l.readChar()
		return 0, ""
	case '\\', '"', '\'':
		l.readChar()
		return c, ""
	case 'u':
		l.readChar()
		if l.ch != '{' {
			return 0, `expected '{' after \u`
		}
		l.readChar()
		hexStart := l.pos
		for isHexDigit(l.ch) {
			l.readChar()
		}
		hex := l.input[hexStart:l.pos]
		if l.ch != '}' || hex == "" {
			return 0, "malformed unicode escape"
		}
		l.readChar()
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return 0, fmt.Sprintf("invalid unicode escape \\u{%s}", hex)
		}
		return rune(n), ""
	}
	l.readChar()
	return c, fmt.Sprintf("unknown escape sequence \\%c", c)
}

// ---------------------------------------------------------------------------
// Character classes
// ---------------------------------------------------------------------------

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}
