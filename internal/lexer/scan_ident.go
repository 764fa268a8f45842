package lexer

import "spring/internal/token"

const utf8RuneSelf = 0x80

// scanIdentOrKeyword сканирует идентификатор и проверяет таблицу ключевых
// слов без учёта регистра.
func (lx *Scanner) scanIdentOrKeyword() token.Kind {
	start := lx.cursor.Off
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, _ := lx.peekRune()
		if !isIdentContinueRune(r) {
			break
		}
		lx.bumpRune()
	}
	if k, ok := lx.kw.Lookup(lx.file.Content[start:lx.cursor.Off]); ok {
		return k
	}
	return token.Ident
}
