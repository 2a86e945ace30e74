// Package server implements the fern language server: parse diagnostics,
// document symbols, hover, go to definition and completion, all computed
// from the parser's (possibly partial) tree.
package server

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/fern/parser"
	"github.com/chazu/fern/pos"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "fern-lsp"

// DefaultMaxCompletions caps a completion list when Config sets no limit.
const DefaultMaxCompletions = 100

// Config configures the language server.
type Config struct {
	Parser         parser.Options
	MaxCompletions int
	Version        string
}

// LspServer answers editor requests from parsed documents held by a Worker.
type LspServer struct {
	worker *Worker
	log    commonlog.Logger

	maxCompletions int

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new language server.
func NewLSP(cfg Config) *LspServer {
	if cfg.MaxCompletions <= 0 {
		cfg.MaxCompletions = DefaultMaxCompletions
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	log := commonlog.GetLogger("fern.lsp")
	if cfg.Parser.Logger == nil {
		cfg.Parser.Logger = commonlog.GetLogger("fern.parser")
	}

	s := &LspServer{
		worker:         NewWorker(NewWorkspace(cfg.Parser)),
		log:            log,
		maxCompletions: cfg.MaxCompletions,
		version:        cfg.Version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	defer s.worker.Stop()
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("fern LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.DocumentSymbolProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return s.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) == 0 {
		return nil
	}
	switch last := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return s.update(ctx, params.TextDocument.URI, last.Text)
	case protocol.TextDocumentContentChangeEvent:
		if last.Range == nil {
			return s.update(ctx, params.TextDocument.URI, last.Text)
		}
		s.log.Warningf("ignoring incremental change to %s", params.TextDocument.URI)
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	if _, err := s.worker.Do(func(ws *Workspace) any {
		ws.Close(string(uri))
		return nil
	}); err != nil {
		return err
	}

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// update reparses uri and publishes its diagnostics.
func (s *LspServer) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	result, err := s.worker.Do(func(ws *Workspace) any {
		return ws.Update(string(uri), text)
	})
	if err != nil {
		return err
	}
	doc := result.(*Document)

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(doc),
	})
	return nil
}

// withDocument runs fn on the worker with the document stored for uri.
// An unknown document yields nil.
func (s *LspServer) withDocument(uri protocol.DocumentUri, fn func(doc *Document) any) (any, error) {
	return s.worker.Do(func(ws *Workspace) any {
		doc, ok := ws.Get(string(uri))
		if !ok {
			return nil
		}
		return fn(doc)
	})
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	result, err := s.withDocument(params.TextDocument.URI, func(doc *Document) any {
		return s.complete(doc, params.Position)
	})
	if err != nil || result == nil {
		return nil, err
	}
	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	result, err := s.withDocument(params.TextDocument.URI, func(doc *Document) any {
		return hover(doc, params.Position)
	})
	if err != nil {
		return nil, err
	}
	h, _ := result.(*protocol.Hover)
	return h, nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	result, err := s.withDocument(params.TextDocument.URI, func(doc *Document) any {
		return definition(doc, params.Position)
	})
	if err != nil {
		return nil, err
	}
	if locs, ok := result.([]protocol.Location); ok && len(locs) > 0 {
		return locs, nil
	}
	return nil, nil
}

func (s *LspServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	result, err := s.withDocument(params.TextDocument.URI, func(doc *Document) any {
		return documentSymbols(doc)
	})
	if err != nil || result == nil {
		return nil, err
	}
	return result, nil
}

// --- Document-backed logic (called on the worker goroutine) ---

var keywords = []string{"and", "else", "if", "in", "let", "match", "then", "type", "with"}

// complete lists the names in scope at the cursor that start with the
// word being typed, innermost binding first when names repeat.
func (s *LspServer) complete(doc *Document, p protocol.Position) []protocol.CompletionItem {
	off := doc.Offset(p)
	prefix := extractPrefix(doc.Text, off)
	lowerPrefix := strings.ToLower(prefix)
	scope := scopeAt(doc.Tree, off-pos.BytePos(len(prefix)))

	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	for i := len(scope) - 1; i >= 0; i-- {
		b := scope[i]
		if seen[b.name] || !strings.HasPrefix(strings.ToLower(b.name), lowerPrefix) {
			continue
		}
		seen[b.name] = true
		kind := completionKind(b.kind)
		detail := signature(b)
		item := protocol.CompletionItem{
			Label:  b.name,
			Kind:   &kind,
			Detail: &detail,
		}
		if text := docComment(b); text != "" {
			item.Documentation = protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: text}
		}
		items = append(items, item)
	}

	for _, kw := range keywords {
		if prefix != "" && strings.HasPrefix(kw, lowerPrefix) && !seen[kw] {
			kind := protocol.CompletionItemKindKeyword
			items = append(items, protocol.CompletionItem{Label: kw, Kind: &kind})
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Label < items[j].Label })

	// Limit results
	if len(items) > s.maxCompletions {
		items = items[:s.maxCompletions]
	}

	return items
}

func completionKind(k binderKind) protocol.CompletionItemKind {
	switch k {
	case bindFunction:
		return protocol.CompletionItemKindFunction
	case bindType:
		return protocol.CompletionItemKindClass
	case bindCtor:
		return protocol.CompletionItemKindEnumMember
	}
	return protocol.CompletionItemKindVariable
}

// hover shows the signature and doc comment of the binding the word under
// the cursor refers to.
func hover(doc *Document, p protocol.Position) *protocol.Hover {
	off := doc.Offset(p)
	word, span := extractWord(doc.Text, off)
	if word == "" {
		return nil
	}
	b, ok := lookup(scopeAt(doc.Tree, span.Start), word)
	if !ok {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "```fern\n%s\n```", signature(b))
	if text := docComment(b); text != "" {
		sb.WriteString("\n\n---\n\n")
		sb.WriteString(text)
	}

	r := doc.Range(span)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: sb.String(),
		},
		Range: &r,
	}
}

// definition locates where the word under the cursor is bound.
func definition(doc *Document, p protocol.Position) []protocol.Location {
	word, span := extractWord(doc.Text, doc.Offset(p))
	if word == "" {
		return nil
	}
	b, ok := lookup(scopeAt(doc.Tree, span.Start), word)
	if !ok {
		return nil
	}
	return []protocol.Location{{
		URI:   protocol.DocumentUri(doc.URI),
		Range: doc.Range(b.span),
	}}
}

// --- Diagnostics ---

// diagnostics converts the parse error of doc, if any, to an LSP
// diagnostic covering the offending span.
func diagnostics(doc *Document) []protocol.Diagnostic {
	if doc.Err == nil {
		return []protocol.Diagnostic{}
	}
	severity := protocol.DiagnosticSeverityError
	source := lspName
	code := protocol.IntegerOrString{Value: strings.ReplaceAll(doc.Err.Kind.String(), " ", "-")}
	return []protocol.Diagnostic{{
		Range:    doc.Range(doc.Err.Span),
		Severity: &severity,
		Code:     &code,
		Source:   &source,
		Message:  doc.Err.Message,
	}}
}

// --- Text extraction helpers ---

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\''
}

// extractPrefix returns the identifier fragment before off for completion.
func extractPrefix(text string, off pos.BytePos) string {
	end := clampOffset(text, off)
	start := end
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if r == '\n' || !isWordRune(r) {
			break
		}
		start -= size
	}
	return text[start:end]
}

// extractWord returns the full identifier touching off and its span.
func extractWord(text string, off pos.BytePos) (string, pos.Span) {
	at := clampOffset(text, off)

	// Find start
	start := at
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}

	// Find end
	end := at
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}

	if start == end {
		return "", pos.At(pos.BytePos(at))
	}
	return text[start:end], pos.NewSpan(pos.BytePos(start), pos.BytePos(end))
}

func clampOffset(text string, off pos.BytePos) int {
	switch {
	case off < 0:
		return 0
	case int(off) > len(text):
		return len(text)
	}
	return int(off)
}

func boolPtr(b bool) *bool {
	return &b
}
