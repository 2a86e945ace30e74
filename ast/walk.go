package ast

// Visitor is called by Walk for each node. If Visit returns a non-nil
// visitor w, Walk visits the children of node with w and then calls
// w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order, children in source order.
// Nil children (left by error recovery) are skipped.
func Walk(v Visitor, node Node) {
	if node == nil || isNilNode(node) {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *IntLiteral, *FloatLiteral, *StringLiteral, *CharLiteral, *ByteLiteral, *Ident:
		// leaves

	case *Infix:
		walkExpr(v, n.Lhs)
		walkExpr(v, n.Rhs)

	case *App:
		walkExpr(v, n.Func)
		for _, a := range n.Args {
			walkExpr(v, a)
		}

	case *Lambda:
		walkExpr(v, n.Body)

	case *IfElse:
		walkExpr(v, n.Cond)
		walkExpr(v, n.Then)
		walkExpr(v, n.Else)

	case *Match:
		walkExpr(v, n.Scrutinee)
		for _, alt := range n.Alternatives {
			if alt.Pattern != nil {
				Walk(v, alt.Pattern)
			}
			walkExpr(v, alt.Expr)
		}

	case *LetBindings:
		for _, b := range n.Bindings {
			Walk(v, b)
		}
		walkExpr(v, n.Body)

	case *ValueBinding:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		walkType(v, n.Type)
		walkExpr(v, n.Expr)

	case *TypeBindings:
		for _, b := range n.Bindings {
			Walk(v, b)
		}
		walkExpr(v, n.Body)

	case *TypeBinding:
		if n.Alias != nil {
			walkType(v, n.Alias.Type)
		}

	case *Record:
		for _, f := range n.Types {
			walkType(v, f.Value)
		}
		for _, f := range n.Exprs {
			walkExpr(v, f.Value)
		}

	case *Array:
		for _, e := range n.Exprs {
			walkExpr(v, e)
		}

	case *Projection:
		walkExpr(v, n.Expr)

	case *Block:
		for _, e := range n.Exprs {
			walkExpr(v, e)
		}

	case *IdentPattern:
		// leaf

	case *ConstructorPattern:
		for _, a := range n.Args {
			Walk(v, a)
		}

	case *RecordPattern:
		for _, f := range n.Fields {
			if f.Value != nil {
				Walk(v, f.Value)
			}
		}

	case *Hole, *Generic, *Builtin, *TypeIdent:
		// leaves

	case *TypeApp:
		walkType(v, n.Head)
		for _, a := range n.Args {
			walkType(v, a)
		}

	case *Function:
		walkType(v, n.Arg)
		walkType(v, n.Ret)

	case *RecordType:
		for _, f := range n.Types {
			if f.Alias != nil {
				walkType(v, f.Alias.Type)
			}
		}
		for _, f := range n.Fields {
			walkType(v, f.Type)
		}

	case *Variants:
		for _, c := range n.Ctors {
			walkType(v, c.Type)
		}
	}

	v.Visit(nil)
}

func walkExpr(v Visitor, e Expr) {
	if e != nil {
		Walk(v, e)
	}
}

// walkType skips holes; they are placeholders, not source.
func walkType(v Visitor, t Type) {
	if t != nil && !IsHole(t) {
		Walk(v, t)
	}
}

// isNilNode catches typed nil pointers stored in an interface.
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *ValueBinding:
		return n == nil
	case *TypeBinding:
		return n == nil
	}
	return false
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node
// and then f(nil) after its children. If f returns false the children of
// that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
