package parser

import (
	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/token"
)

// parseStatements - цикл верхнего уровня: до EOF, с гарантией прогресса.
func (p *Parser) parseStatements(b *Builder) {
	for !b.EOF() {
		before := b.Consumed()
		p.parseStatement(b)
		if b.Consumed() == before {
			p.skipToken(b)
		}
	}
}

// parseStatement выбирает правило по первому значимому токену.
func (p *Parser) parseStatement(b *Builder) {
	switch b.Kind() {
	case token.KwBegin:
		p.parseCompound(b)
	case token.Ident:
		if b.LookAhead(1) == token.LParen {
			p.parseCall(b)
		} else {
			p.parseAssign(b)
		}
	default:
		p.parseStray(b)
	}
}

// parseStray wraps a token that cannot start a statement.
func (p *Parser) parseStray(b *Builder) {
	tok := b.Token()
	m := b.Mark()
	if tok.Kind == token.Invalid {
		b.Error(diag.LexUnknownChar, "Unknown character "+p.describe(tok)+".")
	} else {
		b.Error(diag.SynExpectStatement, p.expected(b, "statement"))
	}
	b.Advance()
	b.Done(m, ast.KindError, nil)
}

// parseTerminator expects ';' after a statement. A missing ';' is
// reported against the statement and the offending token is swallowed
// unless it belongs to the enclosing construct.
func (p *Parser) parseTerminator(b *Builder, m Marker) {
	k := b.Kind()
	if k == token.Semicolon {
		b.Advance()
		return
	}
	fix := diag.Fix{Title: "insert ';'", Edits: []diag.FixEdit{diag.Insert(b.lastEnd, ";")}}
	b.ErrorAt(m, diag.SynExpectSemicolon, p.expected(b, "';'"), fix)
	if k == token.KwEnd || k == token.EOF {
		return
	}
	p.skipToken(b)
}

// CompoundStatement := 'begin' Statement+ 'end' [';' unless at EOF]
func (p *Parser) parseCompound(b *Builder) Completed {
	m := b.Mark()
	b.Advance() // begin
	count := 0
	for k := b.Kind(); k != token.KwEnd && k != token.EOF; k = b.Kind() {
		before := b.Consumed()
		p.parseStatement(b)
		if b.Consumed() == before {
			p.skipToken(b)
		}
		count++
	}
	if count == 0 {
		b.Error(diag.SynExpectStatement, p.expected(b, "statement"))
	}
	p.expect(b, token.KwEnd, diag.SynExpectEnd, "'end'")
	// the block that ends the file may omit ';'
	if !b.EOF() {
		p.parseTerminator(b, m)
	}
	return b.Done(m, ast.KindCompoundStatement, nil)
}

// AssignStatement := Identifier ':=' Expr
func (p *Parser) parseAssign(b *Builder) Completed {
	m := b.Mark()
	target := p.parseName(b)
	payload := ast.AssignPayload{Target: target.ID()}
	if b.Kind() == token.Assign {
		payload.Op = b.Token()
		b.Advance()
		payload.Value = p.parseExpr(b).ID()
	} else {
		b.Error(diag.SynUnexpectedToken, p.expected(b, "':='"))
	}
	p.parseTerminator(b, m)
	return b.Done(m, ast.KindAssignStatement, payload)
}

// ProcedureCall := Identifier '(' Expr ')'
func (p *Parser) parseCall(b *Builder) Completed {
	m := b.Mark()
	callee := p.parseName(b)
	b.Advance() // (
	arg := p.parseExpr(b)
	if b.Kind() == token.RParen {
		b.Advance()
	} else {
		b.Error(diag.SynUnclosedParen, p.expected(b, "')'"))
		if !atBoundary(b.Kind()) {
			p.skipToken(b)
		}
	}
	p.parseTerminator(b, m)
	return b.Done(m, ast.KindProcedureCall, ast.CallPayload{Callee: callee.ID(), Arg: arg.ID()})
}
