package lexer

import "spring/internal/token"

// scanWhitespace коалесцирует пробелы, табы и переводы строк в один токен.
func (lx *Scanner) scanWhitespace() token.Kind {
	for isSpace(lx.cursor.Peek()) && !lx.cursor.EOF() {
		lx.cursor.Bump()
	}
	return token.Whitespace
}

// "// ..." до '\n' (не включая).
func (lx *Scanner) scanLineComment() token.Kind {
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	return token.Comment
}

// Тело "{ ... }": кусок заканчивается на '}' (режим сбрасывается)
// или на '\n' включительно (режим сохраняется).
func (lx *Scanner) scanBraceCommentBody() token.Kind {
	for !lx.cursor.EOF() {
		switch lx.cursor.Bump() {
		case '}':
			lx.mode = modeDefault
			return token.Comment
		case '\n':
			return token.Comment
		}
	}
	return token.Comment
}

// Тело "(* ... *)", та же разбивка по строкам.
func (lx *Scanner) scanParenCommentBody() token.Kind {
	for !lx.cursor.EOF() {
		switch lx.cursor.Bump() {
		case '*':
			if lx.cursor.Eat(')') {
				lx.mode = modeDefault
				return token.Comment
			}
		case '\n':
			return token.Comment
		}
	}
	return token.Comment
}
