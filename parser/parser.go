// Package parser turns fern source text into an ast.Expr.
//
// Text flows through three stages: the Lexer produces raw tokens, the
// Layout filter applies the offside rule and the Parser builds the tree by
// recursive descent with precedence climbing for infix operators. A failed
// parse still returns whatever tree it could build, together with a single
// *Error describing the first failure.
package parser

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Interner supplies the string used for every name the parser creates.
type Interner interface {
	Intern(name string) string
}

type identityInterner struct{}

func (identityInterner) Intern(name string) string { return name }

type mapInterner struct {
	mu    sync.Mutex
	names map[string]string
}

// NewInterner returns an Interner that hands out one shared string per
// distinct name. It is safe for concurrent use.
func NewInterner() Interner {
	return &mapInterner{names: make(map[string]string)}
}

func (m *mapInterner) Intern(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.names[name]; ok {
		return s
	}
	s := strings.Clone(name)
	m.names[s] = s
	return s
}

// Options configure a parse. The zero value is ready to use.
type Options struct {
	// Interner builds identifier names. Nil uses the names as written.
	Interner Interner
	// Logger receives layout and error traces at debug level. May be nil.
	Logger commonlog.Logger
	// TrimBlockDocComments trims both ends of /** */ doc comment text.
	// By default only leading whitespace is removed.
	TrimBlockDocComments bool
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser builds an AST from layout-adjusted tokens.
type Parser struct {
	src   TokenSource
	opts  Options
	names Interner
	log   commonlog.Logger

	curToken  Token
	peekToken Token
	lastEnd   pos.BytePos // end of the last consumed source token

	err    *Error
	halted bool
	depth  int // nesting of expressions, types and patterns
}

// New creates a parser for src.
func New(src string, opts Options) *Parser {
	names := opts.Interner
	if names == nil {
		names = identityInterner{}
	}
	p := &Parser{
		src:   NewLayout(NewLexer(src), opts.Logger),
		opts:  opts,
		names: names,
		log:   opts.Logger,
	}
	p.curToken = p.read()
	p.peekToken = p.read()
	return p
}

// Parse parses src as an expression. On failure the returned expression is
// the partial tree built before the failure, or nil, and the error is a
// *Error.
func Parse(src string) (ast.Expr, error) {
	return ParseWithOptions(src, Options{})
}

// ParseWithOptions is Parse with explicit options.
func ParseWithOptions(src string, opts Options) (ast.Expr, error) {
	return New(src, opts).ParseExpression()
}

// ParseType parses src as a type expression.
func ParseType(src string) (ast.Type, error) {
	p := New(src, Options{})
	var t ast.Type
	if p.expect(TokenOpenBlock, "type") {
		t = p.parseType()
		if !p.halted {
			p.expect(TokenCloseBlock, "end of input")
		}
	}
	if !p.halted && p.curToken.Type != TokenEOF {
		p.fail(p.errorAt(p.curToken, "end of input"))
	}
	if p.err != nil {
		return t, p.err
	}
	return t, nil
}

// ParseExpression parses the whole input as one expression.
func (p *Parser) ParseExpression() (ast.Expr, error) {
	var e ast.Expr
	if p.curToken.Type == TokenEOF {
		p.fail(p.errorAt(p.curToken, "expression"))
	} else {
		e = p.parseBlock()
		if !p.halted && p.curToken.Type != TokenEOF {
			p.fail(p.errorAt(p.curToken, "end of input"))
		}
	}
	if p.err != nil {
		return e, p.err
	}
	return e, nil
}

// read returns the next token, attaching a preceding doc comment to it.
func (p *Parser) read() Token {
	t := p.src.NextToken()
	for t.Type == TokenDocComment {
		doc := t
		t = p.src.NextToken()
		if t.Type != TokenDocComment {
			t.Doc = &doc
		}
	}
	return t
}

func (p *Parser) nextToken() {
	if !p.curToken.Virtual && p.curToken.Type != TokenEOF {
		p.lastEnd = p.curToken.Span.End
	}
	p.curToken = p.peekToken
	p.peekToken = p.read()
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) intern(name string) string {
	return p.names.Intern(name)
}

// spanFrom returns the span from start to the end of the last consumed
// token. A node that consumed nothing gets an empty span at start.
func (p *Parser) spanFrom(start pos.BytePos) pos.Span {
	if p.lastEnd < start {
		return pos.At(start)
	}
	return pos.NewSpan(start, p.lastEnd)
}

// ---------------------------------------------------------------------------
// Blocks and expressions
// ---------------------------------------------------------------------------

// parseBlock parses OPEN_BLOCK expr (SEMI expr)* CLOSE_BLOCK. A block of
// one expression is that expression.
func (p *Parser) parseBlock() ast.Expr {
	if !p.curTokenIs(TokenOpenBlock) {
		p.fail(p.errorAt(p.curToken, "expression"))
		return nil
	}
	p.nextToken()
	start := p.curToken.Span.Start

	var exprs []ast.Expr
	attempted := 0
	for {
		attempted++
		if e := p.parseExpr(); e != nil {
			exprs = append(exprs, e)
		}
		if p.halted || !p.curTokenIs(TokenSemi) {
			break
		}
		p.nextToken()
	}
	// Covers every consumed token, placeholder spans of recovered
	// statements included.
	span := p.spanFrom(start)
	if !p.halted {
		if p.curTokenIs(TokenCloseBlock) {
			p.nextToken()
		} else {
			p.fail(p.errorAt(p.curToken))
		}
	}
	return blockOf(exprs, attempted, span)
}

func (p *Parser) parseExpr() ast.Expr {
	defer p.leave()
	if !p.enter() {
		return nil
	}
	return p.parseInfix(0)
}

// parseInfix parses operator chains by precedence climbing. Every tier is
// left-associative.
func (p *Parser) parseInfix(minPrec int) ast.Expr {
	lhs := p.parseApplication()
	for lhs != nil && !p.halted && p.curTokenIs(TokenOperator) {
		prec := precedence(p.curToken.Literal)
		if prec < minPrec {
			break
		}
		op := p.curToken
		p.nextToken()
		rhs := p.parseInfix(prec + 1)
		if rhs == nil {
			return lhs
		}
		lhs = &ast.Infix{
			SpanVal: p.spanFrom(lhs.Span().Start),
			Lhs:     lhs,
			Op:      ast.NewTypedIdent(p.intern(op.Literal)),
			OpSpan:  op.Span,
			Rhs:     rhs,
		}
	}
	return lhs
}

// precedence returns the binding power of an infix operator. A #TypeName
// prefix does not change it, so #Int- binds like -.
func precedence(op string) int {
	if strings.HasPrefix(op, "#") {
		i := 1
		for i < len(op) {
			r, size := utf8.DecodeRuneInString(op[i:])
			if !isIdentPart(r) {
				break
			}
			i += size
		}
		op = op[i:]
	}
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "==", "/=", "!=", "<", ">", "<=", ">=":
		return 3
	case "+", "-":
		return 5
	case "*", "/", "%":
		return 6
	}
	return 4
}

// parseApplication parses a function position followed by its arguments.
// Let, type, lambda, if and match extend as far right as possible.
func (p *Parser) parseApplication() ast.Expr {
	switch p.curToken.Type {
	case TokenLet:
		return p.parseLet()
	case TokenTypeKeyword:
		return p.parseTypeBindings()
	case TokenBackslash:
		return p.parseLambda()
	case TokenIf:
		return p.parseIfElse()
	case TokenMatch:
		return p.parseMatch()
	}

	fn := p.parsePostfix()
	if fn == nil {
		return nil
	}
	var args []ast.Expr
	for !p.halted && startsAtom(p.curToken.Type) {
		arg := p.parsePostfix()
		if arg == nil {
			break
		}
		args = append(args, arg)
	}
	if !p.halted && p.curTokenIs(TokenBackslash) {
		if arg := p.parseLambda(); arg != nil {
			args = append(args, arg)
		}
	}
	if len(args) == 0 {
		return fn
	}
	return &ast.App{SpanVal: p.spanFrom(fn.Span().Start), Func: fn, Args: args}
}

// parsePostfix parses an atom followed by field projections. A missing
// field name is reported but does not halt: the projection is kept with
// an empty field and an empty span at the receiver.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parseAtom()
	for e != nil && !p.halted && p.curTokenIs(TokenDot) {
		p.nextToken()
		if !p.curTokenIs(TokenIdentifier) {
			p.report(p.errorAt(p.curToken, "field name"))
			return &ast.Projection{
				SpanVal: pos.At(e.Span().Start),
				Expr:    e,
				Type:    &ast.Hole{},
			}
		}
		field := p.curToken
		p.nextToken()
		e = &ast.Projection{
			SpanVal: p.spanFrom(e.Span().Start),
			Expr:    e,
			Field:   p.intern(field.Literal),
			Type:    &ast.Hole{},
		}
	}
	return e
}

func (p *Parser) parseAtom() ast.Expr {
	t := p.curToken
	switch t.Type {
	case TokenIdentifier:
		p.nextToken()
		return &ast.Ident{SpanVal: t.Span, Id: ast.NewTypedIdent(p.intern(t.Literal))}

	case TokenInteger:
		p.nextToken()
		n, _ := strconv.ParseInt(t.Literal, 10, 64)
		return &ast.IntLiteral{SpanVal: t.Span, Value: n}

	case TokenFloat:
		p.nextToken()
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &ast.FloatLiteral{SpanVal: t.Span, Value: f}

	case TokenString:
		p.nextToken()
		return &ast.StringLiteral{SpanVal: t.Span, Value: t.Value}

	case TokenChar:
		p.nextToken()
		r, _ := utf8.DecodeRuneInString(t.Value)
		return &ast.CharLiteral{SpanVal: t.Span, Value: r}

	case TokenByte:
		p.nextToken()
		n, _ := strconv.ParseUint(t.Value, 10, 8)
		return &ast.ByteLiteral{SpanVal: t.Span, Value: byte(n)}

	case TokenLParen:
		if p.peekToken.Type == TokenOperator {
			name, span, ok := p.parseOperatorName()
			if !ok {
				return nil
			}
			return &ast.Ident{SpanVal: span, Id: ast.NewTypedIdent(name)}
		}
		p.nextToken()
		e := p.parseExpr()
		if e != nil && !p.halted {
			p.expect(TokenRParen, "`)`")
		}
		return e

	case TokenLBrace:
		return p.parseRecord()

	case TokenLBracket:
		return p.parseArray()
	}
	p.fail(p.errorAt(t, "expression"))
	return nil
}

// parseOperatorName parses ( op ). The current token is the parenthesis
// and the next one an operator.
func (p *Parser) parseOperatorName() (string, pos.Span, bool) {
	start := p.curToken.Span.Start
	p.nextToken()
	op := p.curToken
	p.nextToken()
	if !p.expect(TokenRParen, "`)`") {
		return "", pos.Span{}, false
	}
	return p.intern(op.Literal), p.spanFrom(start), true
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.curToken.Span.Start
	p.nextToken()

	var args []ast.TypedIdent
	for p.curTokenIs(TokenIdentifier) {
		args = append(args, ast.NewTypedIdent(p.intern(p.curToken.Literal)))
		p.nextToken()
	}
	lam := &ast.Lambda{Id: ast.NewTypedIdent(p.intern("")), Args: args}
	if p.expect(TokenArrow, "`->`") {
		lam.Body = p.parseBlock()
	}
	lam.SpanVal = p.spanFrom(start)
	return lam
}

func (p *Parser) parseIfElse() ast.Expr {
	start := p.curToken.Span.Start
	p.nextToken()

	ie := &ast.IfElse{Cond: p.parseExpr()}
	if !p.halted && p.expect(TokenThen, "`then`") {
		ie.Then = p.parseBlock()
		if !p.halted && p.expect(TokenElse, "`else`") {
			ie.Else = p.parseBlock()
		}
	}
	if ie.Cond == nil {
		return nil
	}
	ie.SpanVal = p.spanFrom(start)
	return ie
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.curToken.Span.Start
	p.nextToken()

	m := &ast.Match{Scrutinee: p.parseExpr()}
	if m.Scrutinee == nil {
		return nil
	}
	if !p.halted && p.expect(TokenWith, "`with`") {
		if !p.curTokenIs(TokenPipe) {
			p.fail(p.errorAt(p.curToken, "`|`"))
		}
		for !p.halted && p.curTokenIs(TokenPipe) {
			p.nextToken()
			pat := p.parsePattern()
			if pat == nil || !p.expect(TokenArrow, "`->`") {
				break
			}
			body := p.parseBlock()
			if body == nil {
				break
			}
			m.Alternatives = append(m.Alternatives, ast.Alternative{Pattern: pat, Expr: body})
		}
	}
	m.SpanVal = p.spanFrom(start)
	return m
}

// parseRecord parses { field, ... }. Upper-case names are associated
// types, the rest values; a name without = is shorthand.
func (p *Parser) parseRecord() ast.Expr {
	start := p.curToken.Span.Start
	p.nextToken()

	rec := &ast.Record{Type: &ast.Hole{}}
	p.parseFields(func(name Token) bool {
		if isUpperName(name.Literal) {
			f := ast.TypeField{Name: p.intern(name.Literal), NameSpan: name.Span}
			if p.curTokenIs(TokenEquals) {
				p.nextToken()
				if f.Value = p.parseType(); f.Value == nil {
					return false
				}
			}
			rec.Types = append(rec.Types, f)
			return true
		}
		f := ast.ExprField{Name: p.intern(name.Literal), NameSpan: name.Span}
		if p.curTokenIs(TokenEquals) {
			p.nextToken()
			if f.Value = p.parseExpr(); f.Value == nil {
				return false
			}
		}
		rec.Exprs = append(rec.Exprs, f)
		return true
	})
	rec.SpanVal = p.spanFrom(start)
	return rec
}

// parseFields runs field for each comma-separated entry up to the closing
// brace, which it consumes. A trailing comma is allowed. field is called
// with the entry's name already consumed and reports whether it parsed.
func (p *Parser) parseFields(field func(name Token) bool) {
	for !p.halted && !p.curTokenIs(TokenRBrace) {
		if !p.curTokenIs(TokenIdentifier) {
			p.fail(p.errorAt(p.curToken, "field name", "`}`"))
			return
		}
		name := p.curToken
		p.nextToken()
		if !field(name) || p.halted {
			return
		}
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(TokenRBrace) {
			p.fail(p.errorAt(p.curToken, "`,`", "`}`"))
			return
		}
	}
	if !p.halted {
		p.nextToken()
	}
}

func (p *Parser) parseArray() ast.Expr {
	start := p.curToken.Span.Start
	p.nextToken()

	arr := &ast.Array{Type: &ast.Hole{}}
	for !p.halted && !p.curTokenIs(TokenRBracket) {
		e := p.parseExpr()
		if e == nil {
			break
		}
		arr.Exprs = append(arr.Exprs, e)
		if p.halted {
			break
		}
		if p.curTokenIs(TokenComma) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(TokenRBracket) {
			p.fail(p.errorAt(p.curToken, "`,`", "`]`"))
		}
	}
	if !p.halted {
		p.nextToken()
	}
	arr.SpanVal = p.spanFrom(start)
	return arr
}

// ---------------------------------------------------------------------------
// Bindings
// ---------------------------------------------------------------------------

// parseLet parses let b (and b)* in body as one recursion group.
func (p *Parser) parseLet() ast.Expr {
	letTok := p.curToken
	p.nextToken()

	let := &ast.LetBindings{}
	doc := letTok.Doc
	for {
		if b := p.parseValueBinding(doc); b != nil {
			let.Bindings = append(let.Bindings, b)
		}
		if p.halted || !p.curTokenIs(TokenAnd) {
			break
		}
		doc = p.curToken.Doc
		p.nextToken()
	}
	if !p.halted && p.expect(TokenIn, "`in`", "`and`") {
		let.Body = p.parseBlock()
	}
	if len(let.Bindings) == 0 {
		return nil
	}
	let.SpanVal = p.spanFrom(letTok.Span.Start)
	return let
}

// parseValueBinding parses name params* (: type)? = block, where the name
// is an identifier, a parenthesized operator or a pattern.
func (p *Parser) parseValueBinding(doc *Token) *ast.ValueBinding {
	start := p.curToken.Span.Start
	b := &ast.ValueBinding{Comment: p.comment(doc), Type: &ast.Hole{}}

	switch {
	case p.curTokenIs(TokenIdentifier) && !isUpperName(p.curToken.Literal):
		t := p.curToken
		p.nextToken()
		b.Name = &ast.IdentPattern{SpanVal: t.Span, Id: ast.NewTypedIdent(p.intern(t.Literal))}
		b.Args = p.parseParams()
	case p.curTokenIs(TokenLParen) && p.peekToken.Type == TokenOperator:
		name, span, ok := p.parseOperatorName()
		if !ok {
			return nil
		}
		b.Name = &ast.IdentPattern{SpanVal: span, Id: ast.NewTypedIdent(name)}
		b.Args = p.parseParams()
	default:
		if b.Name = p.parsePattern(); b.Name == nil {
			return nil
		}
	}

	if !p.halted && p.curTokenIs(TokenColon) {
		p.nextToken()
		if t := p.parseType(); t != nil {
			b.Type = t
		}
	}
	if !p.halted && p.expect(TokenEquals, "`=`") {
		b.Expr = p.parseBlock()
	}
	b.SpanVal = p.spanFrom(start)
	return b
}

func (p *Parser) parseParams() []ast.TypedIdent {
	var args []ast.TypedIdent
	for p.curTokenIs(TokenIdentifier) {
		args = append(args, ast.NewTypedIdent(p.intern(p.curToken.Literal)))
		p.nextToken()
	}
	return args
}

// parseTypeBindings parses type T = t (and U = u)* in body.
func (p *Parser) parseTypeBindings() ast.Expr {
	typeTok := p.curToken
	p.nextToken()

	tb := &ast.TypeBindings{}
	doc := typeTok.Doc
	for {
		if b := p.parseTypeBinding(doc); b != nil {
			tb.Bindings = append(tb.Bindings, b)
		}
		if p.halted || !p.curTokenIs(TokenAnd) {
			break
		}
		doc = p.curToken.Doc
		p.nextToken()
	}
	if !p.halted && p.expect(TokenIn, "`in`", "`and`") {
		tb.Body = p.parseBlock()
	}
	if len(tb.Bindings) == 0 {
		return nil
	}
	tb.SpanVal = p.spanFrom(typeTok.Span.Start)
	return tb
}

func (p *Parser) parseTypeBinding(doc *Token) *ast.TypeBinding {
	if !p.curTokenIs(TokenIdentifier) || !isUpperName(p.curToken.Literal) {
		p.fail(p.errorAt(p.curToken, "type name"))
		return nil
	}
	nameTok := p.curToken
	p.nextToken()

	name := p.intern(nameTok.Literal)
	var params []*ast.Generic
	for p.curTokenIs(TokenIdentifier) && !isUpperName(p.curToken.Literal) {
		params = append(params, &ast.Generic{
			SpanVal: p.curToken.Span,
			Id:      p.intern(p.curToken.Literal),
			Kind:    &ast.KindVar{},
		})
		p.nextToken()
	}

	b := &ast.TypeBinding{Comment: p.comment(doc), Name: name, NameSpan: nameTok.Span}
	if p.expect(TokenEquals, "`=`") {
		var t ast.Type
		if p.curTokenIs(TokenPipe) {
			t = p.parseVariants(name, params)
		} else {
			t = p.parseType()
		}
		if t != nil {
			b.Alias = &ast.Alias{Name: name, Args: params, Type: t}
		}
	}
	b.SpanVal = p.spanFrom(nameTok.Span.Start)
	return b
}

// comment converts an attached doc comment token.
func (p *Parser) comment(doc *Token) *ast.Comment {
	if doc == nil {
		return nil
	}
	c := &ast.Comment{Kind: ast.LineComment, Text: doc.Value, Span: doc.Span}
	if strings.HasPrefix(doc.Literal, "/**") {
		c.Kind = ast.BlockComment
		if p.opts.TrimBlockDocComments {
			c.Text = strings.TrimSpace(c.Text)
		} else {
			c.Text = strings.TrimLeftFunc(c.Text, unicode.IsSpace)
		}
	}
	return c
}

// ---------------------------------------------------------------------------
// Token classes
// ---------------------------------------------------------------------------

func startsAtom(t TokenType) bool {
	switch t {
	case TokenIdentifier, TokenInteger, TokenFloat, TokenString, TokenChar, TokenByte,
		TokenLParen, TokenLBrace, TokenLBracket:
		return true
	}
	return false
}

// isUpperName reports whether name starts with an upper-case letter, which
// marks constructors, type names and associated types.
func isUpperName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
