package parser

import (
	"context"
	"fmt"
	"strconv"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/tokenbuf"
	"spring/internal/trace"
)

type Options struct {
	// MaxErrors ограничивает число ошибок; 0 - без лимита.
	MaxErrors uint
	Reporter  diag.Reporter
	Resync    tokenbuf.Options
}

// Parser - состояние парсера на один документ. Каждый разбор строит
// дерево заново; ускорение даёт только повторное использование токенов.
type Parser struct {
	lx   lexer.Lexer
	buf  *tokenbuf.Buffer
	tree *ast.Tree
	opts Options
}

func New(lx lexer.Lexer, opts Options) *Parser {
	return &Parser{lx: lx, opts: opts}
}

// Lexer returns the lexer backing the parser.
func (p *Parser) Lexer() lexer.Lexer { return p.lx }

// TokenBuffer returns the tokens of the last successful parse.
func (p *Parser) TokenBuffer() *tokenbuf.Buffer { return p.buf }

// Tree returns the last successfully built tree.
func (p *Parser) Tree() *ast.Tree { return p.tree }

// ParseFile runs the grammar over the current lexer from offset 0.
// A replaying lexer hands its buffer over as is; any other lexer is
// recorded into a fresh buffer while the grammar pulls tokens.
func (p *Parser) ParseFile(ctx context.Context) (*ast.Tree, error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, "parse")
	replay, isReplay := p.lx.(*tokenbuf.Replay)

	b := newBuilder(ctx, p.lx, &p.opts, !isReplay)
	p.parseStatements(b)
	tree, toks, err := b.finish()
	if err != nil {
		span.End(err.Error())
		return nil, err
	}

	var buf *tokenbuf.Buffer
	if isReplay {
		buf = replay.Buffer()
	} else {
		buf, err = tokenbuf.FromTokens(p.lx.File(), toks)
		if err != nil {
			span.End(err.Error())
			return nil, fmt.Errorf("parse %s: %w", p.lx.File().Path, err)
		}
	}
	p.buf, p.tree = buf, tree
	span.Attr("nodes", strconv.Itoa(tree.Len())).
		Attr("diagnostics", strconv.Itoa(len(tree.Diags))).
		End("")
	return tree, nil
}

// ReParse swaps the lexer and parses again from the start. On failure
// the previous lexer, buffer and tree stay in place.
func (p *Parser) ReParse(ctx context.Context, lx lexer.Lexer) (*ast.Tree, error) {
	prev := p.lx
	p.lx = lx
	tree, err := p.ParseFile(ctx)
	if err != nil {
		p.lx = prev
		return nil, err
	}
	return tree, nil
}

// Update rescans the current buffer after edit and reparses over the
// result. It returns the new tree and the range whose tokens changed.
func (p *Parser) Update(ctx context.Context, edit source.Edit, f lexer.Factory) (*ast.Tree, source.Span, error) {
	if p.buf == nil {
		if _, err := p.ParseFile(ctx); err != nil {
			return nil, source.InvalidSpan, err
		}
	}
	next, err := p.buf.Apply(ctx, edit, f, p.opts.Resync)
	if err != nil {
		return nil, source.InvalidSpan, fmt.Errorf("update %s: %w", edit.Old.Path, err)
	}
	tree, err := p.ReParse(ctx, next.Lexer())
	if err != nil {
		return nil, source.InvalidSpan, err
	}
	return tree, next.Affected(), nil
}
