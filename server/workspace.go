package server

import (
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/parser"
	"github.com/chazu/fern/pos"
)

// Document is an open text document and the result of parsing it. Tree
// is the partial tree when Err is set.
type Document struct {
	URI   string
	Text  string
	Index *pos.LineIndex
	Tree  ast.Expr
	Err   *parser.Error
}

// Workspace holds the open documents. It is not safe for concurrent use;
// the Worker owns it.
type Workspace struct {
	opts parser.Options
	docs map[string]*Document
	log  commonlog.Logger
}

// NewWorkspace creates an empty workspace that parses with opts. Every
// document shares one interner unless opts names its own.
func NewWorkspace(opts parser.Options) *Workspace {
	if opts.Interner == nil {
		opts.Interner = parser.NewInterner()
	}
	return &Workspace{
		opts: opts,
		docs: make(map[string]*Document),
		log:  opts.Logger,
	}
}

// Update stores text as the content of uri and reparses it.
func (ws *Workspace) Update(uri, text string) *Document {
	doc := &Document{URI: uri, Text: text, Index: pos.NewLineIndex(text)}
	tree, err := parser.ParseWithOptions(text, ws.opts)
	doc.Tree = tree
	if err != nil {
		doc.Err, _ = parser.AsError(err)
	}
	if ws.log != nil {
		if doc.Err != nil {
			ws.log.Debugf("parsed %s: %s", uri, doc.Err)
		} else {
			ws.log.Debugf("parsed %s", uri)
		}
	}
	ws.docs[uri] = doc
	return doc
}

// Get returns the document stored for uri.
func (ws *Workspace) Get(uri string) (*Document, bool) {
	doc, ok := ws.docs[uri]
	return doc, ok
}

// Close forgets uri.
func (ws *Workspace) Close(uri string) {
	delete(ws.docs, uri)
}

// Len returns the number of open documents.
func (ws *Workspace) Len() int {
	return len(ws.docs)
}

// Offset converts an LSP position in doc to a byte offset.
func (doc *Document) Offset(p protocol.Position) pos.BytePos {
	return doc.Index.OffsetUTF16(int(p.Line), int(p.Character))
}

// Range converts a span of doc to an LSP range.
func (doc *Document) Range(s pos.Span) protocol.Range {
	sl, sc := doc.Index.UTF16(s.Start)
	el, ec := doc.Index.UTF16(s.End)
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(sl), Character: protocol.UInteger(sc)},
		End:   protocol.Position{Line: protocol.UInteger(el), Character: protocol.UInteger(ec)},
	}
}
