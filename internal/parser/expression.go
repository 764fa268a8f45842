package parser

import (
	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/token"
)

func isAdditive(k token.Kind) bool { return k == token.Plus || k == token.Minus }

func isMultiplicative(k token.Kind) bool { return k == token.Star || k == token.Slash }

// extend opens the node of a binary operator: around lhs when there is
// one, empty otherwise.
func extend(b *Builder, lhs Completed) Marker {
	if lhs.IsValid() {
		return b.Precede(lhs)
	}
	return b.Mark()
}

// Expr := Term (('+'|'-') Term)*
// Свёртка левая: a - b + c -> Binary(+){ Binary(-){a - b} + c }.
func (p *Parser) parseExpr(b *Builder) Completed {
	lhs := p.parseTerm(b)
	for isAdditive(b.Kind()) {
		op := b.Token()
		m := extend(b, lhs)
		b.Advance()
		p.parseTerm(b)
		lhs = b.Done(m, ast.KindBinaryExpr, ast.BinaryPayload{Op: op})
	}
	return lhs
}

// Term := StringLiteral | Factor (('*'|'/') Factor)*
func (p *Parser) parseTerm(b *Builder) Completed {
	if token.IsString(b.Kind()) {
		return p.parseLiteral(b)
	}
	lhs := p.parseFactor(b)
	for isMultiplicative(b.Kind()) {
		op := b.Token()
		m := extend(b, lhs)
		b.Advance()
		p.parseFactor(b)
		lhs = b.Done(m, ast.KindBinaryExpr, ast.BinaryPayload{Op: op})
	}
	return lhs
}

// Factor := ('+'|'-') Factor | '(' Expr ')' | Number | Identifier
func (p *Parser) parseFactor(b *Builder) Completed {
	switch b.Kind() {
	case token.Plus, token.Minus:
		m := b.Mark()
		op := b.Token()
		b.Advance()
		p.parseFactor(b)
		return b.Done(m, ast.KindUnaryExpr, ast.UnaryPayload{Op: op})
	case token.LParen:
		m := b.Mark()
		b.Advance()
		p.parseExpr(b)
		p.expect(b, token.RParen, diag.SynUnclosedParen, "')'")
		return b.Done(m, ast.KindParenExpr, nil)
	case token.Number:
		return p.parseLiteral(b)
	case token.Ident:
		return p.parseName(b)
	}
	b.Error(diag.SynExpectExpression, p.expected(b, "expression"))
	return Completed{}
}

func (p *Parser) parseLiteral(b *Builder) Completed {
	m := b.Mark()
	tok := b.Token()
	b.Advance()
	if tok.Kind == token.BadString {
		b.ErrorSpan(diag.LexUnterminatedString, tok.Span, "Unterminated string literal.")
	}
	return b.Done(m, ast.KindLiteral, nil)
}

func (p *Parser) parseName(b *Builder) Completed {
	m := b.Mark()
	b.Advance()
	return b.Done(m, ast.KindName, nil)
}
