// Package lsp serves Spring documents over the Language Server
// Protocol. Every didChange is applied as an edit to the previous
// token buffer, so only the damaged tokens are lexed again.
package lsp

import (
	"context"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"spring/internal/highlight"
	"spring/internal/lang"
	"spring/internal/parser"
	"spring/internal/source"
)

const Name = "spring"

var log = commonlog.GetLogger("spring.lsp")

// Options configures the server.
type Options struct {
	Languages *lang.Registry
	Parser    parser.Options
	Version   string
}

type document struct {
	uri     protocol.DocumentUri
	lang    lang.Language
	parser  *parser.Parser
	version protocol.Integer
}

func (d *document) file() *source.File { return d.parser.TokenBuffer().File() }

// Server holds the open documents of one client connection.
type Server struct {
	opts    Options
	ctx     context.Context
	handler protocol.Handler
	server  *server.Server

	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document
}

// NewServer wires the protocol handler; nothing is read until RunStdio.
func NewServer(opts Options) *Server {
	if opts.Languages == nil {
		opts.Languages = lang.Default()
	}
	s := &Server{
		opts: opts,
		ctx:  context.Background(),
		docs: make(map[protocol.DocumentUri]*document),
	}
	s.handler = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.textDocumentDidOpen,
		TextDocumentDidChange:          s.textDocumentDidChange,
		TextDocumentDidClose:           s.textDocumentDidClose,
		TextDocumentSemanticTokensFull: s.textDocumentSemanticTokensFull,
		TextDocumentFoldingRange:       s.textDocumentFoldingRange,
		TextDocumentHover:              s.textDocumentHover,
		TextDocumentCodeAction:         s.textDocumentCodeAction,
	}
	s.server = server.NewServer(&s.handler, Name, false)
	return s
}

// RunStdio serves the client on stdin/stdout until it disconnects.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	if opts, ok := capabilities.SemanticTokensProvider.(*protocol.SemanticTokensOptions); ok {
		opts.Legend = protocol.SemanticTokensLegend{
			TokenTypes:     highlight.Legend,
			TokenModifiers: []string{},
		}
	}
	if params.ClientInfo != nil {
		log.Info("client connected", "name", params.ClientInfo.Name)
	}
	version := s.opts.Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	l, err := s.opts.Languages.ForPath(uriToPath(item.URI))
	if err != nil {
		log.Info("ignoring document", "uri", item.URI, "err", err)
		return nil
	}
	f := source.NewFile(uriToPath(item.URI), []byte(item.Text))
	p := parser.New(l.Lexers.New(f), s.opts.Parser)
	if _, err := p.ParseFile(s.ctx); err != nil {
		return err
	}
	doc := &document{uri: item.URI, lang: l, parser: p, version: item.Version}

	s.mu.Lock()
	s.docs[item.URI] = doc
	s.mu.Unlock()
	s.publishDiagnostics(ctx, doc)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil
	}
	start := time.Now()
	for _, change := range params.ContentChanges {
		cur := doc.file()
		var edit source.Edit
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				edit = wholeEdit(cur, c.Text)
				break
			}
			var err error
			if _, edit, err = source.Apply(cur, spanForRange(cur, *c.Range), []byte(c.Text)); err != nil {
				return err
			}
		case protocol.TextDocumentContentChangeEventWhole:
			edit = wholeEdit(cur, c.Text)
		default:
			continue
		}
		if err := s.update(doc, edit); err != nil {
			return err
		}
	}
	doc.version = params.TextDocument.Version
	log.Debug("document updated", "uri", doc.uri, "version", doc.version, "elapsed", time.Since(start))
	s.publishDiagnostics(ctx, doc)
	return nil
}

func wholeEdit(cur *source.File, text string) source.Edit {
	next := source.NewFile(cur.Path, []byte(text))
	next.Version = cur.Version + 1
	return source.DiffEdit(cur, next)
}

// update rescans doc after edit, falling back to a full parse when the
// incremental path refuses the edit.
func (s *Server) update(doc *document, edit source.Edit) error {
	_, affected, err := doc.parser.Update(s.ctx, edit, doc.lang.Lexers)
	if err == nil {
		log.Debug("rescanned", "uri", doc.uri, "edit", edit.String(), "affected", affected.String())
		return nil
	}
	log.Warning("incremental update failed, reparsing", "uri", doc.uri, "err", err)
	doc.parser = parser.New(doc.lang.Lexers.New(edit.New), s.opts.Parser)
	_, err = doc.parser.ParseFile(s.ctx)
	return err
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	_, ok := s.docs[params.TextDocument.URI]
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	if ok {
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
	return nil
}

func (s *Server) document(uri protocol.DocumentUri) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[uri]
}
