package ast

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Source-like rendering of types and patterns, for hover text and
// signatures.
// ---------------------------------------------------------------------------

// TypeString renders t in surface syntax: Option a -> { x : Int }.
func TypeString(t Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil, *Hole:
		b.WriteString("_")
	case *Generic:
		b.WriteString(t.Id)
	case *Builtin:
		if t.Kind == BuiltinFunction {
			b.WriteString("(->)")
		} else {
			b.WriteString(t.Kind.String())
		}
	case *TypeIdent:
		b.WriteString(t.Name)
	case *TypeApp:
		writeType(b, t.Head)
		for _, a := range t.Args {
			b.WriteByte(' ')
			writeTypeAtom(b, a)
		}
	case *Function:
		if _, ok := t.Arg.(*Function); ok {
			b.WriteByte('(')
			writeType(b, t.Arg)
			b.WriteByte(')')
		} else {
			writeType(b, t.Arg)
		}
		b.WriteString(" -> ")
		writeType(b, t.Ret)
	case *RecordType:
		if len(t.Types) == 0 && len(t.Fields) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		first := true
		sep := func() {
			if !first {
				b.WriteString(", ")
			}
			first = false
		}
		for _, f := range t.Types {
			sep()
			b.WriteString(f.Name)
			if f.Alias != nil && !isSelfAlias(f) {
				b.WriteString(" = ")
				writeType(b, f.Alias.Type)
			}
		}
		for _, f := range t.Fields {
			sep()
			b.WriteString(f.Name)
			b.WriteString(" : ")
			writeType(b, f.Type)
		}
		b.WriteString(" }")
	case *Variants:
		for i, c := range t.Ctors {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("| ")
			b.WriteString(c.Name)
			for _, a := range CtorArgs(c) {
				b.WriteByte(' ')
				writeTypeAtom(b, a)
			}
		}
	}
}

// writeTypeAtom parenthesizes everything that is not a single token.
func writeTypeAtom(b *strings.Builder, t Type) {
	switch t.(type) {
	case *TypeApp, *Function, *Variants:
		b.WriteByte('(')
		writeType(b, t)
		b.WriteByte(')')
	default:
		writeType(b, t)
	}
}

func isSelfAlias(f AliasField) bool {
	id, ok := f.Alias.Type.(*TypeIdent)
	return ok && id.Name == f.Name
}

// CtorArgs returns the argument types of a constructor, unwinding its
// function type down to the defined type.
func CtorArgs(v Variant) []Type {
	var args []Type
	t := v.Type
	for {
		fn, ok := t.(*Function)
		if !ok {
			return args
		}
		args = append(args, fn.Arg)
		t = fn.Ret
	}
}

// PatternString renders p in surface syntax.
func PatternString(p Pattern) string {
	var b strings.Builder
	writePattern(&b, p, false)
	return b.String()
}

func writePattern(b *strings.Builder, p Pattern, nested bool) {
	switch p := p.(type) {
	case *IdentPattern:
		b.WriteString(OperatorName(p.Id.Name))
	case *ConstructorPattern:
		if nested && len(p.Args) > 0 {
			b.WriteByte('(')
			defer b.WriteByte(')')
		}
		b.WriteString(p.Id.Name)
		for _, a := range p.Args {
			b.WriteByte(' ')
			writePattern(b, a, true)
		}
	case *RecordPattern:
		if len(p.Types) == 0 && len(p.Fields) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		first := true
		for _, f := range p.Types {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(f.Name)
			if f.Rename != "" {
				b.WriteString(" = ")
				b.WriteString(f.Rename)
			}
		}
		for _, f := range p.Fields {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(f.Name)
			if f.Value != nil {
				b.WriteString(" = ")
				writePattern(b, f.Value, false)
			}
		}
		b.WriteString(" }")
	}
}

// OperatorName wraps an operator name in parentheses; other names are
// returned unchanged.
func OperatorName(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if name == "" || r == '_' || unicode.IsLetter(r) {
		return name
	}
	return "(" + name + ")"
}
