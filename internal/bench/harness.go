// Package bench measures incremental against regular reparsing on
// synthetic edits and checks that both produce the same trees.
package bench

import (
	"context"
	"fmt"

	"spring/internal/ast"
	"spring/internal/lexer"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/tokenbuf"
)

// Harness drives one parser over successive versions of a file.
type Harness struct {
	typ    ParserType
	file   *source.File
	parser *parser.Parser
}

// NewHarness prepares a parser of the given type over f.
func NewHarness(typ ParserType, f *source.File, opts parser.Options) *Harness {
	return &Harness{
		typ:    typ,
		file:   f,
		parser: parser.New(typ.Factory().New(f), opts),
	}
}

// Factory returns the lexer factory a parser type relexes with.
func (t ParserType) Factory() lexer.Factory {
	if t == Incremental {
		return lexer.ResumableFactory()
	}
	return lexer.PlainFactory()
}

func (h *Harness) Type() ParserType { return h.typ }

// File is the current snapshot.
func (h *Harness) File() *source.File { return h.file }

// Parser exposes the parser for inspection.
func (h *Harness) Parser() *parser.Parser { return h.parser }

// TokenBuffer returns the tokens of the last parse.
func (h *Harness) TokenBuffer() *tokenbuf.Buffer { return h.parser.TokenBuffer() }

// ParseFile parses the current text from scratch with the current lexer.
func (h *Harness) ParseFile(ctx context.Context) (*ast.Tree, error) {
	if buf := h.parser.TokenBuffer(); buf != nil && h.typ == Incremental {
		// reparse over tokens that are already there
		return h.parser.ReParse(ctx, buf.Lexer())
	}
	return h.parser.ParseFile(ctx)
}

// ReParse swaps the lexer and parses again.
func (h *Harness) ReParse(ctx context.Context, lx lexer.Lexer) (*ast.Tree, error) {
	tree, err := h.parser.ReParse(ctx, lx)
	if err != nil {
		return nil, err
	}
	h.file = lx.File()
	return tree, nil
}

// Apply moves the harness to the text produced by c. Incremental
// harnesses rescan around the change, regular ones relex everything.
func (h *Harness) Apply(ctx context.Context, c Change) (*ast.Tree, error) {
	next, edit, err := source.Apply(h.file, c.Range, c.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.typ, err)
	}
	if h.typ == Incremental {
		tree, _, err := h.parser.Update(ctx, edit, h.typ.Factory())
		if err != nil {
			return nil, err
		}
		h.file = next
		return tree, nil
	}
	return h.ReParse(ctx, h.typ.Factory().New(next))
}
