package lexer

import "spring/internal/token"

// scanOperatorOrPunct: двухсимвольные операторы пробуются первыми.
func (lx *Scanner) scanOperatorOrPunct() token.Kind {
	b := lx.cursor.Bump()
	switch b {
	case '+':
		return token.Plus
	case '-':
		return token.Minus
	case '*':
		return token.Star
	case '/':
		return token.Slash
	case ':':
		if lx.cursor.Eat('=') {
			return token.Assign
		}
		return token.Colon
	case ';':
		return token.Semicolon
	case ',':
		return token.Comma
	case '.':
		if lx.cursor.Eat('.') {
			return token.DotDot
		}
		return token.Dot
	case '(':
		return token.LParen
	case ')':
		return token.RParen
	case '[':
		return token.LBracket
	case ']':
		return token.RBracket
	case '=':
		return token.Eq
	case '<':
		if lx.cursor.Eat('=') {
			return token.LtEq
		}
		if lx.cursor.Eat('>') {
			return token.NotEq
		}
		return token.Lt
	case '>':
		if lx.cursor.Eat('=') {
			return token.GtEq
		}
		return token.Gt
	case '^':
		return token.Caret
	case '@':
		return token.At
	}
	return token.Invalid
}
