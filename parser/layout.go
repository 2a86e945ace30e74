package parser

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Layout: the offside rule as a token filter
// ---------------------------------------------------------------------------

// TokenSource produces tokens one at a time. Lexer and Layout both
// implement it.
type TokenSource interface {
	NextToken() Token
}

type contextKind int

const (
	ctxBlock  contextKind = iota // statements aligned at col
	ctxLet                       // let/type binding group opened at col
	ctxIf                        // waiting for then/else
	ctxMatch                     // alternatives follow
	ctxArm                       // | pattern, waiting for ->
	ctxLambda                    // \ params, waiting for ->
	ctxDelim                     // inside ( [ {
)

var contextNames = map[contextKind]string{
	ctxBlock:  "block",
	ctxLet:    "let",
	ctxIf:     "if",
	ctxMatch:  "match",
	ctxArm:    "arm",
	ctxLambda: "lambda",
	ctxDelim:  "delim",
}

type layoutContext struct {
	kind   contextKind
	col    int
	isType bool      // ctxLet opened by type
	closer TokenType // ctxDelim
}

func (c layoutContext) String() string {
	return fmt.Sprintf("%s@%d", contextNames[c.kind], c.col)
}

// Layout turns indentation into explicit structure. It inserts
// TokenOpenBlock, TokenSemi and TokenCloseBlock around blocks, a virtual
// TokenIn where a binding group ends by dedent, and collapses runs of doc
// comments into one token placed right before the token they document.
type Layout struct {
	src     TokenSource
	log     commonlog.Logger
	stack   []layoutContext
	pending bool // the next real token opens a block
	queue   []Token
	docs    []Token
	line    int // end line of the last real token
	done    bool
	eof     Token
}

// NewLayout wraps src. log may be nil.
func NewLayout(src TokenSource, log commonlog.Logger) *Layout {
	return &Layout{src: src, log: log, pending: true}
}

// NextToken returns the next layout-adjusted token.
func (l *Layout) NextToken() Token {
	for len(l.queue) == 0 {
		if l.done {
			return l.eof
		}
		l.step()
	}
	t := l.queue[0]
	l.queue = l.queue[1:]
	return t
}

func (l *Layout) tracef(format string, args ...any) {
	if l.log != nil {
		l.log.Debugf("layout: "+format, args...)
	}
}

func (l *Layout) step() {
	t := l.src.NextToken()
	switch t.Type {
	case TokenDocComment:
		l.docs = append(l.docs, t)
		return
	case TokenEOF:
		l.finish(t)
		return
	}

	if l.pending {
		l.pending = false
		if startsBlock(t.Type) {
			l.push(layoutContext{kind: ctxBlock, col: t.Loc.Column})
			l.emitVirtual(TokenOpenBlock, t)
		}
	} else if t.Loc.Line > l.line {
		l.offside(t)
	}

	t = l.keyword(t)
	l.line = t.End.Line

	l.flushDocs()
	l.queue = append(l.queue, t)
}

// finish closes every open block at end of input.
func (l *Layout) finish(t Token) {
	for len(l.stack) > 0 {
		if l.pop().kind == ctxBlock {
			l.emitVirtual(TokenCloseBlock, t)
		}
	}
	l.flushDocs()
	l.queue = append(l.queue, t)
	l.eof = t
	l.done = true
}

// offside handles a token that starts a new line.
func (l *Layout) offside(t Token) {
	c := t.Loc.Column
	for len(l.stack) > 0 {
		top := l.stack[len(l.stack)-1]
		switch top.kind {
		case ctxBlock:
			if c < top.col {
				l.pop()
				l.tracef("dedent to %d closes %s", c, top)
				l.emitVirtual(TokenCloseBlock, t)
				continue
			}
			if c == top.col && startsStatement(t.Type) {
				l.tracef("new statement at %s", top)
				l.emitVirtual(TokenSemi, t)
			}
			return

		case ctxLet:
			if c > top.col || t.Type == TokenAnd || t.Type == TokenIn {
				return
			}
			l.pop()
			l.tracef("dedent to %d ends %s with implicit in", c, top)
			l.emitVirtual(TokenIn, t)
			l.push(layoutContext{kind: ctxBlock, col: c})
			l.emitVirtual(TokenOpenBlock, t)
			return

		case ctxIf:
			if c > top.col || t.Type == TokenThen || t.Type == TokenElse {
				return
			}
			l.pop()

		case ctxMatch:
			if c > top.col || t.Type == TokenWith || t.Type == TokenPipe {
				return
			}
			l.pop()

		default:
			return
		}
	}
}

// keyword updates the context stack for t. It returns t, or a layout
// error token in its place.
func (l *Layout) keyword(t Token) Token {
	switch t.Type {
	case TokenLet, TokenTypeKeyword:
		l.push(layoutContext{kind: ctxLet, col: t.Loc.Column, isType: t.Type == TokenTypeKeyword})

	case TokenIf:
		l.push(layoutContext{kind: ctxIf, col: t.Loc.Column})

	case TokenMatch:
		l.push(layoutContext{kind: ctxMatch, col: t.Loc.Column})

	case TokenBackslash:
		l.push(layoutContext{kind: ctxLambda, col: t.Loc.Column})

	case TokenPipe:
		if l.nearestNonBlock() == ctxMatch {
			l.popTo(ctxMatch, t)
			l.push(layoutContext{kind: ctxArm, col: t.Loc.Column})
		}

	case TokenArrow:
		if top, ok := l.top(); ok && (top.kind == ctxLambda || top.kind == ctxArm) {
			l.pop()
			l.pending = true
		}

	case TokenEquals:
		if top, ok := l.top(); ok && top.kind == ctxLet && !top.isType {
			l.pending = true
		}

	case TokenIn:
		if l.popTo(ctxLet, t) {
			l.pop()
			l.pending = true
		}

	case TokenAnd:
		l.popTo(ctxLet, t)

	case TokenThen:
		if l.popTo(ctxIf, t) {
			l.pending = true
		}

	case TokenElse:
		if l.popTo(ctxIf, t) {
			l.pop()
			l.pending = true
		}

	case TokenWith:
		l.popTo(ctxMatch, t)

	case TokenLParen:
		l.push(layoutContext{kind: ctxDelim, col: t.Loc.Column, closer: TokenRParen})
	case TokenLBracket:
		l.push(layoutContext{kind: ctxDelim, col: t.Loc.Column, closer: TokenRBracket})
	case TokenLBrace:
		l.push(layoutContext{kind: ctxDelim, col: t.Loc.Column, closer: TokenRBrace})

	case TokenRParen, TokenRBracket, TokenRBrace:
		return l.closeDelim(t)

	case TokenComma:
		l.popTo(ctxDelim, t)
	}
	return t
}

// closeDelim pops through the innermost delimiter context, which must
// match t.
func (l *Layout) closeDelim(t Token) Token {
	i := l.find(ctxDelim)
	if i < 0 {
		return layoutError(t, fmt.Sprintf("unmatched `%s`", t.Type))
	}
	if want := l.stack[i].closer; want != t.Type {
		return layoutError(t, fmt.Sprintf("mismatched `%s`, expected `%s`", t.Type, want))
	}
	l.popTo(ctxDelim, t)
	l.pop()
	return t
}

func layoutError(t Token, msg string) Token {
	return Token{
		Type:    TokenLayoutError,
		Literal: msg,
		Span:    t.Span,
		Loc:     t.Loc,
		End:     t.End,
		Doc:     t.Doc,
	}
}

// find returns the index of the innermost context of kind, without
// looking past a delimiter unless kind is ctxDelim. It returns -1 when
// there is none.
func (l *Layout) find(kind contextKind) int {
	for i := len(l.stack) - 1; i >= 0; i-- {
		if l.stack[i].kind == kind {
			return i
		}
		if l.stack[i].kind == ctxDelim {
			return -1
		}
	}
	return -1
}

// popTo pops contexts above the innermost one of kind, closing blocks on
// the way. The context itself stays. It reports whether one was found.
func (l *Layout) popTo(kind contextKind, t Token) bool {
	i := l.find(kind)
	if i < 0 {
		return false
	}
	for len(l.stack)-1 > i {
		if l.pop().kind == ctxBlock {
			l.emitVirtual(TokenCloseBlock, t)
		}
	}
	return true
}

// nearestNonBlock returns the kind of the innermost context that is not
// a block.
func (l *Layout) nearestNonBlock() contextKind {
	for i := len(l.stack) - 1; i >= 0; i-- {
		if k := l.stack[i].kind; k != ctxBlock {
			return k
		}
	}
	return ctxBlock
}

func (l *Layout) top() (layoutContext, bool) {
	if len(l.stack) == 0 {
		return layoutContext{}, false
	}
	return l.stack[len(l.stack)-1], true
}

func (l *Layout) push(c layoutContext) {
	l.stack = append(l.stack, c)
}

func (l *Layout) pop() layoutContext {
	c := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	return c
}

// emitVirtual queues a zero-width token of typ at the start of t.
func (l *Layout) emitVirtual(typ TokenType, t Token) {
	l.queue = append(l.queue, Token{
		Type:    typ,
		Literal: typ.String(),
		Span:    pos.At(t.Span.Start),
		Loc:     t.Loc,
		End:     t.Loc,
		Virtual: true,
	})
}

// flushDocs queues the buffered doc comments. Consecutive comments of one
// kind merge into a single token; the merged Literal keeps the source text
// of each piece and Value joins their text with newlines.
func (l *Layout) flushDocs() {
	docs := l.docs
	l.docs = nil
	for len(docs) > 0 {
		n := 1
		for n < len(docs) && isBlockDoc(docs[n]) == isBlockDoc(docs[0]) {
			n++
		}
		l.queue = append(l.queue, mergeDocs(docs[:n]))
		docs = docs[n:]
	}
}

func isBlockDoc(t Token) bool {
	return strings.HasPrefix(t.Literal, "/**")
}

func mergeDocs(docs []Token) Token {
	if len(docs) == 1 {
		return docs[0]
	}
	literals := make([]string, len(docs))
	values := make([]string, len(docs))
	for i, d := range docs {
		literals[i] = d.Literal
		values[i] = d.Value
	}
	last := docs[len(docs)-1]
	return Token{
		Type:    TokenDocComment,
		Literal: strings.Join(literals, "\n"),
		Value:   strings.Join(values, "\n"),
		Span:    docs[0].Span.Merge(last.Span),
		Loc:     docs[0].Loc,
		End:     last.End,
	}
}

// startsBlock reports whether t can be the first token of a block.
// Closers and continuation keywords right after an opener leave the block
// empty so the parser reports the missing expression.
func startsBlock(t TokenType) bool {
	switch t {
	case TokenIn, TokenAnd, TokenThen, TokenElse, TokenWith,
		TokenRParen, TokenRBracket, TokenRBrace, TokenComma,
		TokenLayoutError:
		return false
	}
	return true
}

// startsStatement reports whether a token aligned with a block begins a
// new statement rather than continuing the previous one.
func startsStatement(t TokenType) bool {
	switch t {
	case TokenIn, TokenAnd, TokenThen, TokenElse, TokenWith, TokenPipe,
		TokenRParen, TokenRBracket, TokenRBrace, TokenComma,
		TokenEquals, TokenArrow, TokenColon, TokenDot, TokenOperator:
		return false
	}
	return true
}
