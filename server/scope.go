package server

import (
	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/pos"
)

// binderKind says how a name was introduced.
type binderKind int

const (
	bindValue    binderKind = iota // let x = ...
	bindFunction                   // let f x = ...
	bindParam                      // f x = ... or \x -> ...
	bindPattern                    // destructured by a pattern
	bindType                       // type T = ...
	bindCtor                       // | C ... of a type definition
)

// binder is a name in scope together with the node that introduced it.
type binder struct {
	name string
	kind binderKind
	span pos.Span // where the name is introduced

	value *ast.ValueBinding // bindValue, bindFunction and let patterns
	typ   *ast.TypeBinding  // bindType and bindCtor
	ctor  *ast.Variant      // bindCtor
}

// scopeAt returns the names visible at off, outermost first. Later
// entries shadow earlier ones of the same name.
//
// A failed parse leaves nodes whose spans stop short of the text the user
// is still typing. The rightmost spine of the tree is treated as open
// ended so that text after it still sees the bindings it follows.
func scopeAt(tree ast.Expr, off pos.BytePos) []binder {
	r := &resolver{off: off}
	r.expr(tree, nil, true)
	return r.best
}

// lookup returns the innermost binder named name.
func lookup(scope []binder, name string) (binder, bool) {
	for i := len(scope) - 1; i >= 0; i-- {
		if scope[i].name == name {
			return scope[i], true
		}
	}
	return binder{}, false
}

type resolver struct {
	off  pos.BytePos
	best []binder
}

func (r *resolver) within(s pos.Span, open bool) bool {
	return s.Start <= r.off && (r.off <= s.End || open)
}

func (r *resolver) expr(e ast.Expr, scope []binder, open bool) {
	if e == nil || !r.within(e.Span(), open) {
		return
	}
	r.best = scope

	switch e := e.(type) {
	case *ast.LetBindings:
		group := append(clip(scope), letBinders(e)...)
		for i, b := range e.Bindings {
			bOpen := open && e.Body == nil && i == len(e.Bindings)-1
			if !r.within(b.Span(), bOpen) {
				continue
			}
			inner := append(clip(group), paramBinders(b)...)
			r.best = inner
			r.expr(b.Expr, inner, bOpen)
		}
		r.body(e.Body, group, lastEnd(e.Bindings), open)

	case *ast.TypeBindings:
		group := append(clip(scope), typeBinders(e)...)
		for _, b := range e.Bindings {
			if r.within(b.Span(), false) {
				r.best = group
			}
		}
		var end pos.BytePos
		if n := len(e.Bindings); n > 0 {
			end = e.Bindings[n-1].Span().End
		}
		r.body(e.Body, group, end, open)

	case *ast.Lambda:
		inner := clip(scope)
		for _, a := range e.Args {
			inner = append(inner, binder{name: a.Name, kind: bindParam, span: e.SpanVal})
		}
		r.best = inner
		r.expr(e.Body, inner, open)

	case *ast.Match:
		r.expr(e.Scrutinee, scope, open && len(e.Alternatives) == 0)
		for i, alt := range e.Alternatives {
			altOpen := open && i == len(e.Alternatives)-1
			span := alt.Pattern.Span().Merge(alt.Expr.Span())
			if !r.within(span, altOpen) {
				continue
			}
			inner := append(clip(scope), patternBinders(alt.Pattern, bindPattern, nil)...)
			r.best = inner
			r.expr(alt.Expr, inner, altOpen)
		}

	default:
		kids := children(e)
		for i, c := range kids {
			r.expr(c, scope, open && i == len(kids)-1)
		}
	}
}

// body descends into the body of a binding group. Text between the last
// binding and the body already sees the group.
func (r *resolver) body(body ast.Expr, group []binder, bindingsEnd pos.BytePos, open bool) {
	if r.off > bindingsEnd && (body != nil || open) {
		r.best = group
	}
	r.expr(body, group, open)
}

func lastEnd(bs []*ast.ValueBinding) pos.BytePos {
	if len(bs) == 0 {
		return 0
	}
	return bs[len(bs)-1].Span().End
}

// clip returns scope with no spare capacity, so appends never write into
// a slice another branch still holds.
func clip(scope []binder) []binder {
	return scope[:len(scope):len(scope)]
}

// letBinders returns the names a let group introduces. Every binding of
// the group sees all of them.
func letBinders(e *ast.LetBindings) []binder {
	var out []binder
	for _, b := range e.Bindings {
		if id, ok := b.Name.(*ast.IdentPattern); ok {
			kind := bindValue
			if len(b.Args) > 0 {
				kind = bindFunction
			}
			out = append(out, binder{name: id.Id.Name, kind: kind, span: id.SpanVal, value: b})
			continue
		}
		out = append(out, patternBinders(b.Name, bindPattern, b)...)
	}
	return out
}

func paramBinders(b *ast.ValueBinding) []binder {
	var out []binder
	for _, a := range b.Args {
		out = append(out, binder{name: a.Name, kind: bindParam, span: b.SpanVal, value: b})
	}
	return out
}

// typeBinders returns the type names and constructors of a type group.
func typeBinders(e *ast.TypeBindings) []binder {
	var out []binder
	for _, b := range e.Bindings {
		out = append(out, binder{name: b.Name, kind: bindType, span: b.NameSpan, typ: b})
		if b.Alias == nil {
			continue
		}
		if v, ok := b.Alias.Type.(*ast.Variants); ok {
			for i := range v.Ctors {
				c := &v.Ctors[i]
				out = append(out, binder{name: c.Name, kind: bindCtor, span: c.NameSpan, typ: b, ctor: c})
			}
		}
	}
	return out
}

// patternBinders returns the variables bound by p in source order.
func patternBinders(p ast.Pattern, kind binderKind, owner *ast.ValueBinding) []binder {
	var out []binder
	var walk func(ast.Pattern)
	walk = func(p ast.Pattern) {
		switch p := p.(type) {
		case *ast.IdentPattern:
			out = append(out, binder{name: p.Id.Name, kind: kind, span: p.SpanVal, value: owner})
		case *ast.ConstructorPattern:
			for _, a := range p.Args {
				walk(a)
			}
		case *ast.RecordPattern:
			for _, f := range p.Fields {
				if f.Value == nil {
					out = append(out, binder{name: f.Name, kind: kind, span: f.NameSpan, value: owner})
				} else {
					walk(f.Value)
				}
			}
		}
	}
	walk(p)
	return out
}

// children returns the sub-expressions of e in source order.
func children(e ast.Expr) []ast.Expr {
	var out []ast.Expr
	add := func(es ...ast.Expr) {
		for _, c := range es {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch e := e.(type) {
	case *ast.Infix:
		add(e.Lhs, e.Rhs)
	case *ast.App:
		add(e.Func)
		add(e.Args...)
	case *ast.Lambda:
		add(e.Body)
	case *ast.IfElse:
		add(e.Cond, e.Then, e.Else)
	case *ast.Match:
		add(e.Scrutinee)
		for _, alt := range e.Alternatives {
			add(alt.Expr)
		}
	case *ast.LetBindings:
		for _, b := range e.Bindings {
			add(b.Expr)
		}
		add(e.Body)
	case *ast.TypeBindings:
		add(e.Body)
	case *ast.Record:
		for _, f := range e.Exprs {
			add(f.Value)
		}
	case *ast.Array:
		add(e.Exprs...)
	case *ast.Projection:
		add(e.Expr)
	case *ast.Block:
		add(e.Exprs...)
	}
	return out
}
