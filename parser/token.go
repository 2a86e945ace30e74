package parser

import (
	"fmt"

	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenLayoutError

	// Names
	TokenIdentifier // foo, Bar, f'
	TokenOperator   // +, ==, #Int+

	// Literals
	TokenInteger // 42
	TokenFloat   // 3.14, 1e10
	TokenString  // "hello"
	TokenChar    // 'a'
	TokenByte    // 124b

	TokenDocComment // /// ... or /** ... */

	// Keywords
	TokenLet
	TokenIn
	TokenTypeKeyword
	TokenAnd
	TokenIf
	TokenThen
	TokenElse
	TokenMatch
	TokenWith

	// Punctuation
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenComma     // ,
	TokenDot       // .
	TokenColon     // :
	TokenEquals    // =
	TokenPipe      // |
	TokenBackslash // \
	TokenArrow     // ->

	// Layout tokens, never present in source
	TokenOpenBlock
	TokenSemi
	TokenCloseBlock
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenError:       "ERROR",
	TokenLayoutError: "LAYOUT_ERROR",
	TokenIdentifier:  "IDENTIFIER",
	TokenOperator:    "OPERATOR",
	TokenInteger:     "INTEGER",
	TokenFloat:       "FLOAT",
	TokenString:      "STRING",
	TokenChar:        "CHAR",
	TokenByte:        "BYTE",
	TokenDocComment:  "DOC_COMMENT",
	TokenLet:         "let",
	TokenIn:          "in",
	TokenTypeKeyword: "type",
	TokenAnd:         "and",
	TokenIf:          "if",
	TokenThen:        "then",
	TokenElse:        "else",
	TokenMatch:       "match",
	TokenWith:        "with",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenLBrace:      "{",
	TokenRBrace:      "}",
	TokenLBracket:    "[",
	TokenRBracket:    "]",
	TokenComma:       ",",
	TokenDot:         ".",
	TokenColon:       ":",
	TokenEquals:      "=",
	TokenPipe:        "|",
	TokenBackslash:   `\`,
	TokenArrow:       "->",
	TokenOpenBlock:   "OPEN_BLOCK",
	TokenSemi:        "SEMI",
	TokenCloseBlock:  "CLOSE_BLOCK",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string       // the raw source text, or the message of an error token
	Value   string       // decoded payload of string, char and doc comment tokens
	Span    pos.Span     // byte extent in the source
	Loc     pos.Location // start line and column
	End     pos.Location // end line and column
	Virtual bool         // inserted by the layout engine
	Doc     *Token       // doc comment immediately preceding this token
}

func (t Token) String() string {
	switch {
	case t.Type == TokenEOF:
		return "EOF"
	case t.Type == TokenError || t.Type == TokenLayoutError:
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	case t.Virtual:
		return fmt.Sprintf("<%s>", t.Type)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// describe names a token for diagnostics.
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenOpenBlock:
		return "start of block"
	case TokenSemi:
		return "new statement"
	case TokenCloseBlock:
		return "end of block"
	case TokenIdentifier, TokenOperator, TokenInteger, TokenFloat, TokenString, TokenChar, TokenByte:
		return fmt.Sprintf("%s `%s`", tokenKindNoun[t.Type], t.Literal)
	}
	if t.Virtual {
		return fmt.Sprintf("implicit `%s`", t.Type)
	}
	return fmt.Sprintf("`%s`", t.Type)
}

var tokenKindNoun = map[TokenType]string{
	TokenIdentifier: "identifier",
	TokenOperator:   "operator",
	TokenInteger:    "integer",
	TokenFloat:      "float",
	TokenString:     "string",
	TokenChar:       "char",
	TokenByte:       "byte",
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"let":   TokenLet,
	"in":    TokenIn,
	"type":  TokenTypeKeyword,
	"and":   TokenAnd,
	"if":    TokenIf,
	"then":  TokenThen,
	"else":  TokenElse,
	"match": TokenMatch,
	"with":  TokenWith,
}

// Single-character symbol runs that are punctuation rather than operators.
var symbolPunctuation = map[string]TokenType{
	"=":  TokenEquals,
	"->": TokenArrow,
	"|":  TokenPipe,
	`\`:  TokenBackslash,
	":":  TokenColon,
	".":  TokenDot,
}

// IsSymbolChar returns true if r may appear in an operator.
func IsSymbolChar(r rune) bool {
	switch r {
	case '!', '#', '$', '%', '&', '*', '+', '-', '.', '/', ':', '<', '=', '>', '?', '@', '\\', '^', '|', '~':
		return true
	}
	return false
}
