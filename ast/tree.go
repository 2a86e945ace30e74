package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Tree: a generic, span-carrying view of the AST
// ---------------------------------------------------------------------------

// Tree is a uniform encoding of an AST node: a kind tag, an optional text
// payload (name, operator, literal), the node's span and its children.
// It is what the AST looks like outside this process.
type Tree struct {
	Kind     string  `cbor:"kind" yaml:"kind"`
	Text     string  `cbor:"text,omitempty" yaml:"text,omitempty"`
	Span     [2]int  `cbor:"span" yaml:"span,flow"`
	Children []*Tree `cbor:"children,omitempty" yaml:"children,omitempty"`
}

// leafKinds print as their bare text.
var leafKinds = map[string]bool{
	"ident":   true,
	"param":   true,
	"name":    true,
	"int":     true,
	"float":   true,
	"string":  true,
	"char":    true,
	"byte":    true,
	"pvar":    true,
	"hole":    true,
	"generic": true,
	"builtin": true,
	"tident":  true,
}

// String renders the tree as an s-expression without spans, e.g.
// (infix + x (infix * 1 2)). Two parses of equivalent source render
// identically even when their spans differ.
func (t *Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Tree) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	if len(t.Children) == 0 && leafKinds[t.Kind] {
		switch {
		case t.Kind == "string":
			b.WriteString(strconv.Quote(t.Text))
		case t.Kind == "char":
			r, _ := firstRune(t.Text)
			b.WriteString(strconv.QuoteRune(r))
		case t.Text == "":
			b.WriteString(`""`)
		default:
			b.WriteString(t.Text)
		}
		return
	}
	b.WriteByte('(')
	b.WriteString(t.Kind)
	if t.Text != "" {
		b.WriteByte(' ')
		if t.Kind == "doc" {
			b.WriteString(strconv.Quote(t.Text))
		} else {
			b.WriteString(t.Text)
		}
	}
	for _, c := range t.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteByte(')')
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// Dump is shorthand for Encode(n).String().
func Dump(n Node) string {
	return Encode(n).String()
}

func leaf(kind, text string, span pos.Span) *Tree {
	return &Tree{Kind: kind, Text: text, Span: spanPair(span)}
}

func branch(kind, text string, span pos.Span, children ...*Tree) *Tree {
	return &Tree{Kind: kind, Text: text, Span: spanPair(span), Children: children}
}

func spanPair(s pos.Span) [2]int {
	return [2]int{int(s.Start), int(s.End)}
}

// Encode converts n into its Tree form. A nil node encodes as nil.
func Encode(n Node) *Tree {
	if n == nil {
		return nil
	}
	switch n := n.(type) {
	case Expr:
		return encodeExpr(n)
	case Pattern:
		return encodePattern(n)
	case Type:
		return encodeType(n)
	case *ValueBinding:
		return encodeValueBinding(n)
	case *TypeBinding:
		return encodeTypeBinding(n)
	}
	panic(fmt.Sprintf("ast: Encode of unknown node %T", n))
}

func encodeExpr(e Expr) *Tree {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *IntLiteral:
		return leaf("int", strconv.FormatInt(e.Value, 10), e.SpanVal)
	case *FloatLiteral:
		return leaf("float", formatFloat(e.Value), e.SpanVal)
	case *StringLiteral:
		return leaf("string", e.Value, e.SpanVal)
	case *CharLiteral:
		return leaf("char", string(e.Value), e.SpanVal)
	case *ByteLiteral:
		return leaf("byte", strconv.Itoa(int(e.Value))+"b", e.SpanVal)
	case *Ident:
		return leaf("ident", e.Id.Name, e.SpanVal)
	case *Infix:
		return branch("infix", e.Op.Name, e.SpanVal, encodeExpr(e.Lhs), encodeExpr(e.Rhs))
	case *App:
		children := []*Tree{encodeExpr(e.Func)}
		for _, a := range e.Args {
			children = append(children, encodeExpr(a))
		}
		return branch("app", "", e.SpanVal, children...)
	case *Lambda:
		return branch("lambda", e.Id.Name, e.SpanVal, encodeParams(e.Args, e.SpanVal), encodeExpr(e.Body))
	case *IfElse:
		return branch("if", "", e.SpanVal, encodeExpr(e.Cond), encodeExpr(e.Then), encodeExpr(e.Else))
	case *Match:
		children := []*Tree{encodeExpr(e.Scrutinee)}
		for _, alt := range e.Alternatives {
			span := e.SpanVal
			if alt.Pattern != nil && alt.Expr != nil {
				span = alt.Pattern.Span().Merge(alt.Expr.Span())
			}
			children = append(children, branch("alt", "", span, encodePattern(alt.Pattern), encodeExpr(alt.Expr)))
		}
		return branch("match", "", e.SpanVal, children...)
	case *LetBindings:
		var children []*Tree
		for _, b := range e.Bindings {
			children = append(children, encodeValueBinding(b))
		}
		children = append(children, encodeExpr(e.Body))
		return branch("let", "", e.SpanVal, children...)
	case *TypeBindings:
		var children []*Tree
		for _, b := range e.Bindings {
			children = append(children, encodeTypeBinding(b))
		}
		children = append(children, encodeExpr(e.Body))
		return branch("type", "", e.SpanVal, children...)
	case *Record:
		var children []*Tree
		for _, f := range e.Types {
			t := branch("tfield", f.Name, f.NameSpan)
			if f.Value != nil {
				t.Children = []*Tree{encodeType(f.Value)}
			}
			children = append(children, t)
		}
		for _, f := range e.Exprs {
			t := branch("field", f.Name, f.NameSpan)
			if f.Value != nil {
				t.Children = []*Tree{encodeExpr(f.Value)}
			}
			children = append(children, t)
		}
		return branch("record", "", e.SpanVal, children...)
	case *Array:
		var children []*Tree
		for _, x := range e.Exprs {
			children = append(children, encodeExpr(x))
		}
		return branch("array", "", e.SpanVal, children...)
	case *Projection:
		return branch("proj", "", e.SpanVal, encodeExpr(e.Expr), leaf("name", e.Field, e.SpanVal))
	case *Block:
		var children []*Tree
		for _, x := range e.Exprs {
			children = append(children, encodeExpr(x))
		}
		return branch("block", "", e.SpanVal, children...)
	}
	panic(fmt.Sprintf("ast: unknown expression %T", e))
}

func encodeParams(args []TypedIdent, span pos.Span) *Tree {
	t := branch("params", "", span)
	for _, a := range args {
		t.Children = append(t.Children, leaf("param", a.Name, span))
	}
	return t
}

func encodeComment(c *Comment) *Tree {
	return branch("doc", c.Text, c.Span)
}

func encodeValueBinding(b *ValueBinding) *Tree {
	t := branch("bind", "", b.SpanVal)
	if b.Comment != nil {
		t.Children = append(t.Children, encodeComment(b.Comment))
	}
	t.Children = append(t.Children, encodePattern(b.Name))
	if len(b.Args) > 0 {
		t.Children = append(t.Children, encodeParams(b.Args, b.SpanVal))
	}
	if !IsHole(b.Type) {
		t.Children = append(t.Children, branch("annot", "", b.Type.Span(), encodeType(b.Type)))
	}
	t.Children = append(t.Children, encodeExpr(b.Expr))
	return t
}

func encodeTypeBinding(b *TypeBinding) *Tree {
	t := branch("alias", b.Name, b.SpanVal)
	if b.Comment != nil {
		t.Children = append(t.Children, encodeComment(b.Comment))
	}
	if b.Alias == nil {
		return t
	}
	if len(b.Alias.Args) > 0 {
		params := branch("params", "", b.SpanVal)
		for _, g := range b.Alias.Args {
			params.Children = append(params.Children, encodeType(g))
		}
		t.Children = append(t.Children, params)
	}
	t.Children = append(t.Children, encodeType(b.Alias.Type))
	return t
}

func encodePattern(p Pattern) *Tree {
	if p == nil {
		return nil
	}
	switch p := p.(type) {
	case *IdentPattern:
		return leaf("pvar", p.Id.Name, p.SpanVal)
	case *ConstructorPattern:
		t := branch("ctor", p.Id.Name, p.SpanVal)
		for _, a := range p.Args {
			t.Children = append(t.Children, encodePattern(a))
		}
		return t
	case *RecordPattern:
		t := branch("precord", "", p.SpanVal)
		for _, f := range p.Types {
			tf := branch("tfield", f.Name, f.NameSpan)
			if f.Rename != "" {
				tf.Children = []*Tree{leaf("pvar", f.Rename, f.NameSpan)}
			}
			t.Children = append(t.Children, tf)
		}
		for _, f := range p.Fields {
			pf := branch("field", f.Name, f.NameSpan)
			if f.Value != nil {
				pf.Children = []*Tree{encodePattern(f.Value)}
			}
			t.Children = append(t.Children, pf)
		}
		return t
	}
	panic(fmt.Sprintf("ast: unknown pattern %T", p))
}

func encodeType(t Type) *Tree {
	if t == nil {
		return nil
	}
	switch t := t.(type) {
	case *Hole:
		return leaf("hole", "_", t.SpanVal)
	case *Generic:
		return leaf("generic", t.Id, t.SpanVal)
	case *Builtin:
		return leaf("builtin", t.Kind.String(), t.SpanVal)
	case *TypeIdent:
		return leaf("tident", t.Name, t.SpanVal)
	case *TypeApp:
		out := branch("tapp", "", t.SpanVal, encodeType(t.Head))
		for _, a := range t.Args {
			out.Children = append(out.Children, encodeType(a))
		}
		return out
	case *Function:
		return branch("->", "", t.SpanVal, encodeType(t.Arg), encodeType(t.Ret))
	case *RecordType:
		out := branch("trecord", "", t.SpanVal)
		for _, f := range t.Types {
			tf := branch("tfield", f.Name, f.NameSpan)
			if f.Alias != nil {
				tf.Children = []*Tree{encodeType(f.Alias.Type)}
			}
			out.Children = append(out.Children, tf)
		}
		for _, f := range t.Fields {
			out.Children = append(out.Children, branch("field", f.Name, f.NameSpan, encodeType(f.Type)))
		}
		return out
	case *Variants:
		out := branch("variants", "", t.SpanVal)
		for _, c := range t.Ctors {
			out.Children = append(out.Children, branch("ctor", c.Name, c.NameSpan, encodeType(c.Type)))
		}
		return out
	}
	panic(fmt.Sprintf("ast: unknown type %T", t))
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
