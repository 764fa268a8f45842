package lexer

import "spring/internal/token"

// 'text' с удвоенной кавычкой как escape. Строка не переносится:
// '\n' или EOF до закрывающей кавычки дают BadString ('\n' не входит в токен).
func (lx *Scanner) scanString() token.Kind {
	lx.cursor.Bump() // opening '\''
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\n' {
			return token.BadString
		}
		lx.cursor.Bump()
		if b == '\'' {
			if lx.cursor.Eat('\'') {
				continue
			}
			return token.String
		}
	}
	return token.BadString
}
