package server

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/fern/ast"
)

// documentSymbols lists the let and type bindings of doc, nested the way
// they are nested in the source. A failed parse lists what the partial
// tree holds.
func documentSymbols(doc *Document) []protocol.DocumentSymbol {
	return symbolsOf(doc, doc.Tree)
}

func symbolsOf(doc *Document, e ast.Expr) []protocol.DocumentSymbol {
	if e == nil {
		return nil
	}
	var out []protocol.DocumentSymbol
	switch e := e.(type) {
	case *ast.LetBindings:
		for _, b := range e.Bindings {
			out = append(out, valueSymbol(doc, b))
		}
		out = append(out, symbolsOf(doc, e.Body)...)
	case *ast.TypeBindings:
		for _, b := range e.Bindings {
			out = append(out, typeSymbol(doc, b))
		}
		out = append(out, symbolsOf(doc, e.Body)...)
	default:
		for _, c := range children(e) {
			out = append(out, symbolsOf(doc, c)...)
		}
	}
	return out
}

func valueSymbol(doc *Document, b *ast.ValueBinding) protocol.DocumentSymbol {
	kind := protocol.SymbolKindVariable
	if len(b.Args) > 0 {
		kind = protocol.SymbolKindFunction
	}
	detail := valueSignature(b)
	return protocol.DocumentSymbol{
		Name:           ast.PatternString(b.Name),
		Detail:         &detail,
		Kind:           kind,
		Range:          doc.Range(b.Span()),
		SelectionRange: doc.Range(b.Name.Span()),
		Children:       symbolsOf(doc, b.Expr),
	}
}

func typeSymbol(doc *Document, b *ast.TypeBinding) protocol.DocumentSymbol {
	sym := protocol.DocumentSymbol{
		Name:           b.Name,
		Kind:           protocol.SymbolKindTypeParameter,
		Range:          doc.Range(b.Span()),
		SelectionRange: doc.Range(b.NameSpan),
	}
	if b.Alias == nil {
		return sym
	}
	detail := typeSignature(b)
	sym.Detail = &detail

	switch t := b.Alias.Type.(type) {
	case *ast.Variants:
		sym.Kind = protocol.SymbolKindEnum
		for i := range t.Ctors {
			c := &t.Ctors[i]
			d := ctorSignature(c)
			sym.Children = append(sym.Children, protocol.DocumentSymbol{
				Name:           c.Name,
				Detail:         &d,
				Kind:           protocol.SymbolKindEnumMember,
				Range:          doc.Range(c.NameSpan),
				SelectionRange: doc.Range(c.NameSpan),
			})
		}
	case *ast.RecordType:
		sym.Kind = protocol.SymbolKindStruct
		for _, f := range t.Fields {
			d := ast.TypeString(f.Type)
			sym.Children = append(sym.Children, protocol.DocumentSymbol{
				Name:           f.Name,
				Detail:         &d,
				Kind:           protocol.SymbolKindField,
				Range:          doc.Range(f.NameSpan),
				SelectionRange: doc.Range(f.NameSpan),
			})
		}
	}
	return sym
}

// ---------------------------------------------------------------------------
// Signatures shown in hover and symbol details
// ---------------------------------------------------------------------------

func valueSignature(b *ast.ValueBinding) string {
	var sb strings.Builder
	sb.WriteString("let ")
	sb.WriteString(ast.PatternString(b.Name))
	for _, a := range b.Args {
		sb.WriteByte(' ')
		sb.WriteString(a.Name)
	}
	if !ast.IsHole(b.Type) {
		sb.WriteString(" : ")
		sb.WriteString(ast.TypeString(b.Type))
	}
	return sb.String()
}

func typeSignature(b *ast.TypeBinding) string {
	var sb strings.Builder
	sb.WriteString("type ")
	sb.WriteString(b.Name)
	if b.Alias == nil {
		return sb.String()
	}
	for _, g := range b.Alias.Args {
		sb.WriteByte(' ')
		sb.WriteString(g.Id)
	}
	sb.WriteString(" = ")
	sb.WriteString(ast.TypeString(b.Alias.Type))
	return sb.String()
}

func ctorSignature(c *ast.Variant) string {
	return c.Name + " : " + ast.TypeString(c.Type)
}

// signature describes a binder for hover and completion details.
func signature(b binder) string {
	switch b.kind {
	case bindValue, bindFunction:
		return valueSignature(b.value)
	case bindType:
		return typeSignature(b.typ)
	case bindCtor:
		return ctorSignature(b.ctor)
	case bindParam:
		return "(parameter) " + b.name
	}
	if b.value != nil {
		return b.name + " (bound by let " + ast.PatternString(b.value.Name) + ")"
	}
	return "(pattern) " + b.name
}

// docComment returns the doc comment text attached to the binder's
// definition, if any.
func docComment(b binder) string {
	switch {
	case b.kind == bindParam:
		return ""
	case b.value != nil && b.value.Comment != nil:
		return b.value.Comment.Text
	case b.kind == bindType && b.typ.Comment != nil:
		return b.typ.Comment.Text
	}
	return ""
}
