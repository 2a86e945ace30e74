package parser

import (
	"github.com/chazu/fern/ast"
)

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

// parsePattern parses a constructor applied to argument patterns, or a
// single pattern atom.
func (p *Parser) parsePattern() ast.Pattern {
	defer p.leave()
	if !p.enter() {
		return nil
	}
	if !p.curTokenIs(TokenIdentifier) || !isUpperName(p.curToken.Literal) {
		return p.parsePatternAtom()
	}
	ctor := p.curToken
	p.nextToken()

	var args []ast.Pattern
	for !p.halted && startsPatternAtom(p.curToken.Type) {
		a := p.parsePatternAtom()
		if a == nil {
			break
		}
		args = append(args, a)
	}
	return &ast.ConstructorPattern{
		SpanVal: p.spanFrom(ctor.Span.Start),
		Id:      ast.NewTypedIdent(p.intern(ctor.Literal)),
		Args:    args,
	}
}

func (p *Parser) parsePatternAtom() ast.Pattern {
	t := p.curToken
	switch t.Type {
	case TokenIdentifier:
		p.nextToken()
		id := ast.NewTypedIdent(p.intern(t.Literal))
		if isUpperName(t.Literal) {
			return &ast.ConstructorPattern{SpanVal: t.Span, Id: id}
		}
		return &ast.IdentPattern{SpanVal: t.Span, Id: id}

	case TokenLParen:
		if p.peekToken.Type == TokenOperator {
			name, span, ok := p.parseOperatorName()
			if !ok {
				return nil
			}
			return &ast.IdentPattern{SpanVal: span, Id: ast.NewTypedIdent(name)}
		}
		p.nextToken()
		inner := p.parsePattern()
		if inner != nil && !p.halted {
			p.expect(TokenRParen, "`)`")
		}
		return inner

	case TokenLBrace:
		return p.parseRecordPattern()
	}
	p.fail(p.errorAt(t, "pattern"))
	return nil
}

// parseRecordPattern parses { Assoc, Assoc = Name, field, field = pat }.
func (p *Parser) parseRecordPattern() ast.Pattern {
	start := p.curToken.Span.Start
	p.nextToken()

	rp := &ast.RecordPattern{Type: &ast.Hole{}}
	p.parseFields(func(name Token) bool {
		if isUpperName(name.Literal) {
			f := ast.PatternTypeField{Name: p.intern(name.Literal), NameSpan: name.Span}
			if p.curTokenIs(TokenEquals) {
				p.nextToken()
				if !p.curTokenIs(TokenIdentifier) {
					p.fail(p.errorAt(p.curToken, "type name"))
					return false
				}
				f.Rename = p.intern(p.curToken.Literal)
				p.nextToken()
			}
			rp.Types = append(rp.Types, f)
			return true
		}
		f := ast.PatternField{Name: p.intern(name.Literal), NameSpan: name.Span}
		if p.curTokenIs(TokenEquals) {
			p.nextToken()
			if f.Value = p.parsePattern(); f.Value == nil {
				return false
			}
		}
		rp.Fields = append(rp.Fields, f)
		return true
	})
	rp.SpanVal = p.spanFrom(start)
	return rp
}

func startsPatternAtom(t TokenType) bool {
	switch t {
	case TokenIdentifier, TokenLParen, TokenLBrace:
		return true
	}
	return false
}
