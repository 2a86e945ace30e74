// Package ast defines the position-annotated syntax tree produced by the
// parser and consumed by type inference.
//
// Expr, Pattern, Type and Kind are closed sums: the marker methods are
// unexported, so every variant lives in this package and consumers can
// switch exhaustively over them. Nodes are immutable once built; a
// mutual-recursion group is one parent owning a slice of sibling bindings.
package ast

import "github.com/chazu/fern/pos"

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() pos.Span
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Pattern is the interface for pattern nodes.
type Pattern interface {
	Node
	pattern() // marker method
}

// TypedIdent is a name together with the type slot inference fills in.
// The parser always leaves the slot as a Hole.
type TypedIdent struct {
	Name string
	Type Type
}

// NewTypedIdent returns name with an unresolved type.
func NewTypedIdent(name string) TypedIdent {
	return TypedIdent{Name: name, Type: &Hole{}}
}

// CommentKind tells line doc comments from block doc comments.
type CommentKind int

const (
	LineComment  CommentKind = iota // /// ...
	BlockComment                    // /** ... */
)

// Comment is a doc comment attached to the binding that follows it.
type Comment struct {
	Kind CommentKind
	Text string
	Span pos.Span
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// IntLiteral represents an integer literal.
type IntLiteral struct {
	SpanVal pos.Span
	Value   int64
}

func (n *IntLiteral) Span() pos.Span { return n.SpanVal }
func (n *IntLiteral) node()          {}
func (n *IntLiteral) expr()          {}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	SpanVal pos.Span
	Value   float64
}

func (n *FloatLiteral) Span() pos.Span { return n.SpanVal }
func (n *FloatLiteral) node()          {}
func (n *FloatLiteral) expr()          {}

// StringLiteral represents a string literal with escapes decoded.
type StringLiteral struct {
	SpanVal pos.Span
	Value   string
}

func (n *StringLiteral) Span() pos.Span { return n.SpanVal }
func (n *StringLiteral) node()          {}
func (n *StringLiteral) expr()          {}

// CharLiteral represents a character literal ('a').
type CharLiteral struct {
	SpanVal pos.Span
	Value   rune
}

func (n *CharLiteral) Span() pos.Span { return n.SpanVal }
func (n *CharLiteral) node()          {}
func (n *CharLiteral) expr()          {}

// ByteLiteral represents a byte literal (124b). Its span includes the suffix.
type ByteLiteral struct {
	SpanVal pos.Span
	Value   byte
}

func (n *ByteLiteral) Span() pos.Span { return n.SpanVal }
func (n *ByteLiteral) node()          {}
func (n *ByteLiteral) expr()          {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Ident represents a variable reference, including parenthesized operators.
type Ident struct {
	SpanVal pos.Span
	Id      TypedIdent
}

func (n *Ident) Span() pos.Span { return n.SpanVal }
func (n *Ident) node()          {}
func (n *Ident) expr()          {}

// Infix represents a binary operator application (lhs op rhs).
type Infix struct {
	SpanVal pos.Span
	Lhs     Expr
	Op      TypedIdent
	OpSpan  pos.Span
	Rhs     Expr
}

func (n *Infix) Span() pos.Span { return n.SpanVal }
func (n *Infix) node()          {}
func (n *Infix) expr()          {}

// App represents function application by juxtaposition (f a b).
type App struct {
	SpanVal pos.Span
	Func    Expr
	Args    []Expr
}

func (n *App) Span() pos.Span { return n.SpanVal }
func (n *App) node()          {}
func (n *App) expr()          {}

// Lambda represents an anonymous function (\x y -> body). Id is the
// function's own name slot; it is empty for source lambdas.
type Lambda struct {
	SpanVal pos.Span
	Id      TypedIdent
	Args    []TypedIdent
	Body    Expr
}

func (n *Lambda) Span() pos.Span { return n.SpanVal }
func (n *Lambda) node()          {}
func (n *Lambda) expr()          {}

// IfElse represents if c then a else b.
type IfElse struct {
	SpanVal pos.Span
	Cond    Expr
	Then    Expr
	Else    Expr
}

func (n *IfElse) Span() pos.Span { return n.SpanVal }
func (n *IfElse) node()          {}
func (n *IfElse) expr()          {}

// Alternative is one | pattern -> expr arm of a match.
type Alternative struct {
	Pattern Pattern
	Expr    Expr
}

// Match represents match e with | p -> x ... Alternatives keep source order.
type Match struct {
	SpanVal      pos.Span
	Scrutinee    Expr
	Alternatives []Alternative
}

func (n *Match) Span() pos.Span { return n.SpanVal }
func (n *Match) node()          {}
func (n *Match) expr()          {}

// ValueBinding is one binding of a let group.
type ValueBinding struct {
	SpanVal pos.Span
	Comment *Comment
	Name    Pattern
	Type    Type // Hole when there is no annotation
	Args    []TypedIdent
	Expr    Expr
}

// Span returns the extent from the binding's name to the end of its body.
func (b *ValueBinding) Span() pos.Span { return b.SpanVal }
func (b *ValueBinding) node()          {}

// LetBindings is let b1 and b2 ... in body. The bindings form one
// mutual-recursion group.
type LetBindings struct {
	SpanVal  pos.Span
	Bindings []*ValueBinding
	Body     Expr
}

func (n *LetBindings) Span() pos.Span { return n.SpanVal }
func (n *LetBindings) node()          {}
func (n *LetBindings) expr()          {}

// TypeBinding is one alias of a type group.
type TypeBinding struct {
	SpanVal  pos.Span
	Comment  *Comment
	Name     string
	NameSpan pos.Span
	Alias    *Alias
}

// Span returns the extent from the binding's name to the end of its definition.
func (b *TypeBinding) Span() pos.Span { return b.SpanVal }
func (b *TypeBinding) node()          {}

// TypeBindings is type A = ... and B = ... in body, one recursion group.
type TypeBindings struct {
	SpanVal  pos.Span
	Bindings []*TypeBinding
	Body     Expr
}

func (n *TypeBindings) Span() pos.Span { return n.SpanVal }
func (n *TypeBindings) node()          {}
func (n *TypeBindings) expr()          {}

// TypeField is an associated type field of a record expression. A nil
// Value is the shorthand that re-exports the alias of the same name.
type TypeField struct {
	Name     string
	NameSpan pos.Span
	Value    Type
}

// ExprField is a value field of a record expression. A nil Value is the
// shorthand x for x = x.
type ExprField struct {
	Name     string
	NameSpan pos.Span
	Value    Expr
}

// Record represents { Types..., fields... }.
type Record struct {
	SpanVal pos.Span
	Type    Type
	Types   []TypeField
	Exprs   []ExprField
}

func (n *Record) Span() pos.Span { return n.SpanVal }
func (n *Record) node()          {}
func (n *Record) expr()          {}

// Array represents [a, b, c].
type Array struct {
	SpanVal pos.Span
	Type    Type
	Exprs   []Expr
}

func (n *Array) Span() pos.Span { return n.SpanVal }
func (n *Array) node()          {}
func (n *Array) expr()          {}

// Projection represents field access (expr.field). A recovered projection
// has an empty Field and a zero-length span.
type Projection struct {
	SpanVal pos.Span
	Expr    Expr
	Field   string
	Type    Type
}

func (n *Projection) Span() pos.Span { return n.SpanVal }
func (n *Projection) node()          {}
func (n *Projection) expr()          {}

// Block is a sequence of expressions; its value is the last one.
type Block struct {
	SpanVal pos.Span
	Exprs   []Expr
}

func (n *Block) Span() pos.Span { return n.SpanVal }
func (n *Block) node()          {}
func (n *Block) expr()          {}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

// IdentPattern binds the matched value to a name.
type IdentPattern struct {
	SpanVal pos.Span
	Id      TypedIdent
}

func (n *IdentPattern) Span() pos.Span { return n.SpanVal }
func (n *IdentPattern) node()          {}
func (n *IdentPattern) pattern()       {}

// ConstructorPattern matches a variant constructor and its arguments.
type ConstructorPattern struct {
	SpanVal pos.Span
	Id      TypedIdent
	Args    []Pattern
}

func (n *ConstructorPattern) Span() pos.Span { return n.SpanVal }
func (n *ConstructorPattern) node()          {}
func (n *ConstructorPattern) pattern()       {}

// PatternTypeField binds an associated type of a record, optionally under
// another name.
type PatternTypeField struct {
	Name     string
	NameSpan pos.Span
	Rename   string
}

// PatternField destructures one record field. A nil Value binds the field
// under its own name.
type PatternField struct {
	Name     string
	NameSpan pos.Span
	Value    Pattern
}

// RecordPattern destructures a record ({ x, y = p }).
type RecordPattern struct {
	SpanVal pos.Span
	Type    Type
	Types   []PatternTypeField
	Fields  []PatternField
}

func (n *RecordPattern) Span() pos.Span { return n.SpanVal }
func (n *RecordPattern) node()          {}
func (n *RecordPattern) pattern()       {}

// BoundNames returns the names a pattern introduces, in source order.
func BoundNames(p Pattern) []string {
	var names []string
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch p := p.(type) {
		case *IdentPattern:
			names = append(names, p.Id.Name)
		case *ConstructorPattern:
			for _, a := range p.Args {
				walk(a)
			}
		case *RecordPattern:
			for _, tf := range p.Types {
				if tf.Rename != "" {
					names = append(names, tf.Rename)
				} else {
					names = append(names, tf.Name)
				}
			}
			for _, f := range p.Fields {
				if f.Value == nil {
					names = append(names, f.Name)
				} else {
					walk(f.Value)
				}
			}
		}
	}
	if p != nil {
		walk(p)
	}
	return names
}
