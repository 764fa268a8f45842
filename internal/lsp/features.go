package lsp

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/highlight"
	"spring/internal/source"
	"spring/internal/token"
)

func (s *Server) publishDiagnostics(ctx *glsp.Context, doc *document) {
	tree := doc.parser.Tree()
	out := make([]protocol.Diagnostic, 0, len(tree.Diags))
	for _, d := range tree.Diagnostics() {
		out = append(out, toProtocolDiagnostic(doc.uri, tree.File, d))
	}
	params := protocol.PublishDiagnosticsParams{URI: doc.uri, Diagnostics: out}
	if v, err := safecast.Conv[protocol.UInteger](doc.version); err == nil {
		params.Version = &v
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

func toProtocolDiagnostic(uri protocol.DocumentUri, f *source.File, d diag.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	switch d.Severity {
	case diag.SevWarning:
		severity = protocol.DiagnosticSeverityWarning
	case diag.SevInfo:
		severity = protocol.DiagnosticSeverityInformation
	}
	src := Name
	out := protocol.Diagnostic{
		Range:    rangeForSpan(f, d.Primary),
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: d.Code.ID()},
		Source:   &src,
		Message:  d.Message,
	}
	for _, n := range d.Notes {
		out.RelatedInformation = append(out.RelatedInformation, protocol.DiagnosticRelatedInformation{
			Location: protocol.Location{URI: uri, Range: rangeForSpan(f, n.Span)},
			Message:  n.Msg,
		})
	}
	return out
}

func (s *Server) textDocumentSemanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}
	buf := doc.parser.TokenBuffer()
	return &protocol.SemanticTokens{Data: highlight.SemanticTokens(buf.File(), buf.Tokens())}, nil
}

// textDocumentFoldingRange folds compound statements and runs of
// comment lines that span more than one line.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return []protocol.FoldingRange{}, nil
	}
	return foldingRanges(doc.parser.Tree(), doc.parser.TokenBuffer().Tokens()), nil
}

func foldingRanges(tree *ast.Tree, toks []token.Token) []protocol.FoldingRange {
	f := tree.File
	out := make([]protocol.FoldingRange, 0, 8)
	add := func(span source.Span, kind string) {
		end := span.End
		// a trailing '\n' must not stretch the range onto the next line
		if end > span.Start && f.Content[end-1] == '\n' {
			end--
		}
		startLine := positionForOffset(f, span.Start).Line
		endLine := positionForOffset(f, end).Line
		if startLine >= endLine {
			return
		}
		r := protocol.FoldingRange{StartLine: startLine, EndLine: endLine}
		if kind != "" {
			r.Kind = &kind
		}
		out = append(out, r)
	}
	tree.Walk(func(_ ast.NodeID, n *ast.Node, _ int) bool {
		if n.Kind == ast.KindCompoundStatement {
			add(n.Span, "")
		}
		return true
	})
	for _, r := range highlight.Ranges(toks) {
		if r.Class == highlight.Comment {
			add(r.Span, string(protocol.FoldingRangeKindComment))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartLine == out[j].StartLine {
			return out[i].EndLine > out[j].EndLine
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}

func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	tree := doc.parser.Tree()
	off := offsetForPosition(tree.File, params.Position)
	id := tree.NodeAt(off)
	if id == tree.Root {
		return nil, nil
	}
	text := fmt.Sprintf("`%s`", tree.Describe(id))
	buf := doc.parser.TokenBuffer()
	if i := buf.FindTokenAt(off); i >= 0 {
		tok := buf.At(i)
		text += fmt.Sprintf("\n\ntoken `%s` at %s", tok.Kind, tok.Span)
	}
	r := rangeForSpan(tree.File, tree.Node(id).Span)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: text},
		Range:    &r,
	}, nil
}

// textDocumentCodeAction offers the fixes attached to the diagnostics
// that touch the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return []protocol.CodeAction{}, nil
	}
	tree := doc.parser.Tree()
	want := spanForRange(tree.File, params.Range)
	kind := protocol.CodeActionKindQuickFix
	actions := make([]protocol.CodeAction, 0, 2)
	for _, d := range tree.Diagnostics() {
		if !touches(d.Primary, want) {
			continue
		}
		for _, fix := range d.Fixes {
			edits := make([]protocol.TextEdit, 0, len(fix.Edits))
			for _, e := range fix.Edits {
				edits = append(edits, protocol.TextEdit{Range: rangeForSpan(tree.File, e.Span), NewText: e.NewText})
			}
			preferred := len(d.Fixes) == 1
			actions = append(actions, protocol.CodeAction{
				Title:       fix.Title,
				Kind:        &kind,
				Diagnostics: []protocol.Diagnostic{toProtocolDiagnostic(doc.uri, tree.File, d)},
				IsPreferred: &preferred,
				Edit: &protocol.WorkspaceEdit{
					Changes: map[protocol.DocumentUri][]protocol.TextEdit{doc.uri: edits},
				},
			})
		}
	}
	return actions, nil
}

// touches treats both spans as closed so that a cursor right after a
// diagnostic still picks it up.
func touches(a, b source.Span) bool {
	return a.Start <= b.End && b.Start <= a.End
}
