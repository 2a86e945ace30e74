package parser

import (
	"fmt"
	"strings"

	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Error recovery
//
// The first failure is the only one reported. A halting failure stops all
// further consumption; every parse function then returns what it has
// built so far and its callers assemble the partial tree on the way out.
// ---------------------------------------------------------------------------

// report records err unless an earlier failure was recorded. Parsing
// continues.
func (p *Parser) report(err *Error) {
	if p.err != nil {
		return
	}
	p.err = err
	if p.log != nil {
		p.log.Debugf("parser: %s", err)
	}
}

// fail records err and halts the parse.
func (p *Parser) fail(err *Error) {
	p.report(err)
	p.halted = true
}

// expect consumes a token of type t or fails. expected names what would
// have been accepted, for the message.
func (p *Parser) expect(t TokenType, expected ...string) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.fail(p.errorAt(p.curToken, expected...))
	return false
}

// maxNestLev bounds how deeply expressions, types and patterns may nest
// before the parse fails instead of exhausting the goroutine stack.
const maxNestLev = 100000

// enter descends one nesting level. Every call is paired with leave,
// including the ones that fail.
func (p *Parser) enter() bool {
	p.depth++
	if p.depth <= maxNestLev {
		return true
	}
	p.fail(&Error{Kind: SyntaxError, Span: p.curToken.Span, Message: "expression nested too deeply"})
	return false
}

func (p *Parser) leave() {
	p.depth--
}

// errorAt describes a failure at t. Error tokens from the lexer and the
// layout filter keep their own kind and message.
func (p *Parser) errorAt(t Token, expected ...string) *Error {
	switch t.Type {
	case TokenError:
		return &Error{Kind: LexicalError, Span: t.Span, Message: t.Literal, Expected: expected}
	case TokenLayoutError:
		return &Error{Kind: LayoutError, Span: t.Span, Message: t.Literal, Expected: expected}
	}
	msg := fmt.Sprintf("unexpected %s", t.describe())
	if len(expected) > 0 {
		msg = fmt.Sprintf("expected %s, found %s", joinExpected(expected), t.describe())
	}
	return &Error{Kind: SyntaxError, Span: t.Span, Message: msg, Expected: expected}
}

func joinExpected(expected []string) string {
	switch len(expected) {
	case 1:
		return expected[0]
	case 2:
		return expected[0] + " or " + expected[1]
	}
	return strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
}

// blockOf assembles the statements of a block spanning span. A block
// that only ever held one statement collapses to it; otherwise the
// statements that parsed are kept in order, including a failed last one.
func blockOf(exprs []ast.Expr, attempted int, span pos.Span) ast.Expr {
	switch {
	case len(exprs) == 0:
		return nil
	case len(exprs) == 1 && attempted == 1:
		return exprs[0]
	}
	return &ast.Block{
		SpanVal: span,
		Exprs:   exprs,
	}
}
