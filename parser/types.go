package parser

import (
	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Type expressions
// ---------------------------------------------------------------------------

// parseType parses app (-> type)?. The arrow is right-associative.
func (p *Parser) parseType() ast.Type {
	defer p.leave()
	if !p.enter() {
		return nil
	}
	start := p.curToken.Span.Start
	arg := p.parseTypeApplication()
	if arg == nil || p.halted || !p.curTokenIs(TokenArrow) {
		return arg
	}
	p.nextToken()
	ret := p.parseType()
	if ret == nil {
		return arg
	}
	return &ast.Function{SpanVal: p.spanFrom(start), Arg: arg, Ret: ret}
}

func (p *Parser) parseTypeApplication() ast.Type {
	start := p.curToken.Span.Start
	head := p.parseTypeAtom()
	if head == nil {
		return nil
	}
	args := p.parseTypeArgs()
	return ast.NewTypeApp(p.spanFrom(start), head, args)
}

func (p *Parser) parseTypeArgs() []ast.Type {
	var args []ast.Type
	for !p.halted && startsTypeAtom(p.curToken.Type) {
		a := p.parseTypeAtom()
		if a == nil {
			break
		}
		args = append(args, a)
	}
	return args
}

func (p *Parser) parseTypeAtom() ast.Type {
	t := p.curToken
	switch t.Type {
	case TokenIdentifier:
		p.nextToken()
		return p.namedType(t)

	case TokenLParen:
		switch p.peekToken.Type {
		case TokenRParen:
			p.nextToken()
			p.nextToken()
			return &ast.Builtin{SpanVal: p.spanFrom(t.Span.Start), Kind: ast.BuiltinUnit}
		case TokenArrow:
			p.nextToken()
			p.nextToken()
			if !p.expect(TokenRParen, "`)`") {
				return nil
			}
			return &ast.Builtin{SpanVal: p.spanFrom(t.Span.Start), Kind: ast.BuiltinFunction}
		}
		p.nextToken()
		inner := p.parseType()
		if inner != nil && !p.halted {
			p.expect(TokenRParen, "`)`")
		}
		return inner

	case TokenLBrace:
		return p.parseRecordType()
	}
	p.fail(p.errorAt(t, "type"))
	return nil
}

// namedType classifies an identifier in type position: builtins, _ for a
// hole, lower-case generics and everything else as a type reference.
func (p *Parser) namedType(t Token) ast.Type {
	if b, ok := ast.LookupBuiltin(t.Literal); ok {
		return &ast.Builtin{SpanVal: t.Span, Kind: b}
	}
	if t.Literal == "_" {
		return &ast.Hole{SpanVal: t.Span}
	}
	if !isUpperName(t.Literal) {
		return &ast.Generic{SpanVal: t.Span, Id: p.intern(t.Literal), Kind: &ast.KindVar{}}
	}
	return &ast.TypeIdent{SpanVal: t.Span, Name: p.intern(t.Literal)}
}

// parseRecordType parses { Assoc, Assoc = type, field : type, ... }. A bare
// associated type name re-exports the alias of that name.
func (p *Parser) parseRecordType() ast.Type {
	start := p.curToken.Span.Start
	p.nextToken()

	rt := &ast.RecordType{}
	p.parseFields(func(name Token) bool {
		n := p.intern(name.Literal)
		if isUpperName(name.Literal) {
			alias := &ast.Alias{Name: n, Type: &ast.TypeIdent{SpanVal: name.Span, Name: n}}
			if p.curTokenIs(TokenEquals) {
				p.nextToken()
				t := p.parseType()
				if t == nil {
					return false
				}
				alias.Type = t
			}
			rt.Types = append(rt.Types, ast.AliasField{Name: n, NameSpan: name.Span, Alias: alias})
			return true
		}
		if !p.expect(TokenColon, "`:`") {
			return false
		}
		t := p.parseType()
		if t == nil {
			return false
		}
		rt.Fields = append(rt.Fields, ast.Field{Name: n, NameSpan: name.Span, Type: t})
		return true
	})
	rt.SpanVal = p.spanFrom(start)
	return rt
}

// parseVariants parses | Ctor args ... for the type name applied to
// params. Each constructor's type is the function from its arguments to
// that type.
func (p *Parser) parseVariants(name string, params []*ast.Generic) ast.Type {
	start := p.curToken.Span.Start
	v := &ast.Variants{}
	for !p.halted && p.curTokenIs(TokenPipe) {
		p.nextToken()
		if !p.curTokenIs(TokenIdentifier) || !isUpperName(p.curToken.Literal) {
			p.fail(p.errorAt(p.curToken, "constructor name"))
			break
		}
		ctor := p.curToken
		p.nextToken()
		args := p.parseTypeArgs()
		if p.halted {
			break
		}
		v.Ctors = append(v.Ctors, ast.Variant{
			Name:     p.intern(ctor.Literal),
			NameSpan: ctor.Span,
			Type:     ast.NewFunction(args, selfType(name, params, ctor.Span)),
		})
	}
	v.SpanVal = p.spanFrom(start)
	return v
}

// selfType builds the type being defined, name applied to its params,
// placed at span.
func selfType(name string, params []*ast.Generic, span pos.Span) ast.Type {
	self := &ast.TypeIdent{SpanVal: span, Name: name}
	if len(params) == 0 {
		return self
	}
	args := make([]ast.Type, len(params))
	for i, g := range params {
		args[i] = &ast.Generic{SpanVal: span, Id: g.Id, Kind: g.Kind}
	}
	return ast.NewTypeApp(span, self, args)
}

func startsTypeAtom(t TokenType) bool {
	switch t {
	case TokenIdentifier, TokenLParen, TokenLBrace:
		return true
	}
	return false
}
