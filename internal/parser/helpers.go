package parser

import (
	"fmt"
	"unicode/utf8"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/token"
)

const maxQuoted = 24

// describe renders a token for "Expected X but Y is given." messages.
func (p *Parser) describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of file"
	}
	text := p.lx.File().Slice(tok.Span)
	if utf8.RuneCountInString(text) > maxQuoted {
		r := []rune(text)
		text = string(r[:maxQuoted]) + "..."
	}
	return "'" + text + "'"
}

func (p *Parser) expected(b *Builder, what string) string {
	return fmt.Sprintf("Expected %s but %s is given.", what, p.describe(b.Token()))
}

// expect consumes k or reports code against the next token.
func (p *Parser) expect(b *Builder, k token.Kind, code diag.Code, what string) bool {
	if b.Kind() == k {
		b.Advance()
		return true
	}
	b.Error(code, p.expected(b, what))
	return false
}

// skipToken wraps the current token into an Error node. Used whenever
// the grammar would otherwise stop making progress.
func (p *Parser) skipToken(b *Builder) {
	if b.EOF() {
		return
	}
	m := b.Mark()
	b.Advance()
	b.Done(m, ast.KindError, nil)
}

// atBoundary reports tokens that belong to an enclosing construct and
// must not be swallowed by error recovery.
func atBoundary(k token.Kind) bool {
	return k == token.Semicolon || k == token.KwEnd || k == token.EOF
}
