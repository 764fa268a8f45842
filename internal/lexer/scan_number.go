package lexer

import "spring/internal/token"

// digits ['.' digits*]. Точка берётся жадно, без заглядывания за неё:
// "1." - число, "1..5" лексится как "1." "." "5".
func (lx *Scanner) scanNumber() token.Kind {
	for isDec(lx.cursor.Peek()) && !lx.cursor.EOF() {
		lx.cursor.Bump()
	}
	if lx.cursor.Eat('.') {
		for isDec(lx.cursor.Peek()) && !lx.cursor.EOF() {
			lx.cursor.Bump()
		}
	}
	return token.Number
}

// '$' hexdigits+; одинокий '$' - Invalid.
func (lx *Scanner) scanHexNumber() token.Kind {
	lx.cursor.Bump() // '$'
	if !isHex(lx.cursor.Peek()) || lx.cursor.EOF() {
		return token.Invalid
	}
	for isHex(lx.cursor.Peek()) && !lx.cursor.EOF() {
		lx.cursor.Bump()
	}
	return token.Number
}
