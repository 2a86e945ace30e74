package ast

import (
	"fmt"

	"github.com/chazu/fern/pos"
)

// ---------------------------------------------------------------------------
// Type expressions
// ---------------------------------------------------------------------------

// Type is the interface for type expression nodes.
type Type interface {
	Node
	typ() // marker method
}

// Hole is a type that inference has not filled in yet.
type Hole struct {
	SpanVal pos.Span
}

func (n *Hole) Span() pos.Span { return n.SpanVal }
func (n *Hole) node()          {}
func (n *Hole) typ()           {}

// Generic is a type parameter such as a in Option a.
type Generic struct {
	SpanVal pos.Span
	Id      string
	Kind    Kind
}

func (n *Generic) Span() pos.Span { return n.SpanVal }
func (n *Generic) node()          {}
func (n *Generic) typ()           {}

// BuiltinType enumerates the primitive types.
type BuiltinType int

const (
	BuiltinInt BuiltinType = iota
	BuiltinFloat
	BuiltinString
	BuiltinChar
	BuiltinByte
	BuiltinUnit
	BuiltinArray
	BuiltinFunction
)

var builtinNames = map[BuiltinType]string{
	BuiltinInt:      "Int",
	BuiltinFloat:    "Float",
	BuiltinString:   "String",
	BuiltinChar:     "Char",
	BuiltinByte:     "Byte",
	BuiltinUnit:     "()",
	BuiltinArray:    "Array",
	BuiltinFunction: "->",
}

var builtinsByName = map[string]BuiltinType{
	"Int":    BuiltinInt,
	"Float":  BuiltinFloat,
	"String": BuiltinString,
	"Char":   BuiltinChar,
	"Byte":   BuiltinByte,
	"()":     BuiltinUnit,
	"Array":  BuiltinArray,
	"->":     BuiltinFunction,
}

func (b BuiltinType) String() string {
	if name, ok := builtinNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Builtin(%d)", b)
}

// LookupBuiltin returns the builtin type spelled name, if there is one.
func LookupBuiltin(name string) (BuiltinType, bool) {
	b, ok := builtinsByName[name]
	return b, ok
}

// Builtin is a primitive type.
type Builtin struct {
	SpanVal pos.Span
	Kind    BuiltinType
}

func (n *Builtin) Span() pos.Span { return n.SpanVal }
func (n *Builtin) node()          {}
func (n *Builtin) typ()           {}

// TypeIdent refers to a named type.
type TypeIdent struct {
	SpanVal pos.Span
	Name    string
}

func (n *TypeIdent) Span() pos.Span { return n.SpanVal }
func (n *TypeIdent) node()          {}
func (n *TypeIdent) typ()           {}

// TypeApp applies a type constructor to arguments. NewTypeApp keeps Head
// from being another TypeApp.
type TypeApp struct {
	SpanVal pos.Span
	Head    Type
	Args    []Type
}

func (n *TypeApp) Span() pos.Span { return n.SpanVal }
func (n *TypeApp) node()          {}
func (n *TypeApp) typ()           {}

// Function is the type Arg -> Ret.
type Function struct {
	SpanVal pos.Span
	Arg     Type
	Ret     Type
}

func (n *Function) Span() pos.Span { return n.SpanVal }
func (n *Function) node()          {}
func (n *Function) typ()           {}

// Field is a name/type pair of a record type.
type Field struct {
	Name     string
	NameSpan pos.Span
	Type     Type
}

// AliasField is an associated type of a record type.
type AliasField struct {
	Name     string
	NameSpan pos.Span
	Alias    *Alias
}

// RecordType is { Types..., fields: types... }.
type RecordType struct {
	SpanVal pos.Span
	Types   []AliasField
	Fields  []Field
}

func (n *RecordType) Span() pos.Span { return n.SpanVal }
func (n *RecordType) node()          {}
func (n *RecordType) typ()           {}

// Variant is one constructor of a sum type. Type is the constructor viewed
// as a function from its arguments to the defined type.
type Variant struct {
	Name     string
	NameSpan pos.Span
	Type     Type
}

// Variants is a sum type (| A | B x).
type Variants struct {
	SpanVal pos.Span
	Ctors   []Variant
}

func (n *Variants) Span() pos.Span { return n.SpanVal }
func (n *Variants) node()          {}
func (n *Variants) typ()           {}

// Alias is a named, possibly parameterized type definition.
type Alias struct {
	Name string
	Args []*Generic
	Type Type
}

// NewTypeApp builds head applied to args. Nested applications are
// flattened and (->) applied to exactly two arguments becomes a Function,
// so (->) a b and a -> b produce the same tree.
func NewTypeApp(span pos.Span, head Type, args []Type) Type {
	if len(args) == 0 {
		return head
	}
	if inner, ok := head.(*TypeApp); ok {
		merged := make([]Type, 0, len(inner.Args)+len(args))
		merged = append(merged, inner.Args...)
		merged = append(merged, args...)
		head, args = inner.Head, merged
	}
	if b, ok := head.(*Builtin); ok && b.Kind == BuiltinFunction && len(args) == 2 {
		return &Function{SpanVal: span, Arg: args[0], Ret: args[1]}
	}
	return &TypeApp{SpanVal: span, Head: head, Args: args}
}

// NewFunction builds args[0] -> args[1] -> ... -> ret. With no arguments
// it returns ret itself.
func NewFunction(args []Type, ret Type) Type {
	out := ret
	for i := len(args) - 1; i >= 0; i-- {
		out = &Function{SpanVal: args[i].Span().Merge(out.Span()), Arg: args[i], Ret: out}
	}
	return out
}

// IsHole reports whether t is missing or unresolved.
func IsHole(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*Hole)
	return ok
}

// ---------------------------------------------------------------------------
// Kinds
// ---------------------------------------------------------------------------

// Kind classifies types. The parser only produces KindVar placeholders;
// inference owns the allocator that numbers them.
type Kind interface {
	kind() // marker method
}

// KindVar is an unresolved kind. ID 0 means not yet allocated.
type KindVar struct {
	ID uint32
}

func (*KindVar) kind() {}

// KindType is the kind of value types (*).
type KindType struct{}

func (*KindType) kind() {}

// KindFunction is the kind Arg -> Ret of type constructors.
type KindFunction struct {
	Arg Kind
	Ret Kind
}

func (*KindFunction) kind() {}
