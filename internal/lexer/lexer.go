package lexer

import (
	"spring/internal/source"
	"spring/internal/token"
)

// Lexer produces tokens strictly left to right over one snapshot.
// Next returns an EOF token once the text is exhausted, and keeps
// returning it.
type Lexer interface {
	File() *source.File
	// Reset rewinds to offset 0 in the default state.
	Reset()
	Next() token.Token
}

// Resumable lexers can restart in the middle of the text.
type Resumable interface {
	Lexer
	// Resume continues from offset from in the given state, which must
	// be the State of the token ending at from. Scanning never reads
	// past limit.
	Resume(from, limit uint32, state token.State)
}

// Режимы сканера; значение режима и есть token.State.
const (
	modeDefault token.State = iota
	modeBraceComment
	modeParenComment
	modeCount
)

// Scanner is the Spring lexer. It implements Resumable.
type Scanner struct {
	file   *source.File
	cursor Cursor
	mode   token.State
	kw     *token.KeywordMatcher
}

var _ Resumable = (*Scanner)(nil)

func New(file *source.File) *Scanner {
	return &Scanner{
		file:   file,
		cursor: NewCursor(file),
		mode:   modeDefault,
		kw:     token.NewKeywordMatcher(),
	}
}

func (lx *Scanner) File() *source.File { return lx.file }

func (lx *Scanner) Reset() {
	lx.cursor.Seek(0, lx.file.Len())
	lx.mode = modeDefault
}

func (lx *Scanner) Resume(from, limit uint32, state token.State) {
	lx.cursor.Seek(from, limit)
	if state >= modeCount {
		state = modeDefault
	}
	lx.mode = state
}

// Next возвращает следующий токен, включая whitespace и комментарии.
// После EOF всегда возвращает EOF.
func (lx *Scanner) Next() token.Token {
	if lx.cursor.EOF() {
		off := lx.cursor.Off
		return token.Token{Kind: token.EOF, Span: source.Span{Start: off, End: off}, State: lx.mode}
	}

	start := lx.cursor.Mark()
	var kind token.Kind
	switch lx.mode {
	case modeBraceComment:
		kind = lx.scanBraceCommentBody()
	case modeParenComment:
		kind = lx.scanParenCommentBody()
	default:
		kind = lx.scanDefault()
	}
	return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), State: lx.mode}
}

func (lx *Scanner) scanDefault() token.Kind {
	ch := lx.cursor.Peek()
	switch {
	case isSpace(ch):
		return lx.scanWhitespace()
	case ch == '{':
		lx.cursor.Bump()
		lx.mode = modeBraceComment
		return lx.scanBraceCommentBody()
	case ch == '(' && lx.peekIs(1, '*'):
		lx.cursor.Bump()
		lx.cursor.Bump()
		lx.mode = modeParenComment
		return lx.scanParenCommentBody()
	case ch == '/' && lx.peekIs(1, '/'):
		return lx.scanLineComment()
	case ch == '\'':
		return lx.scanString()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '$':
		return lx.scanHexNumber()
	case isIdentStartByte(ch):
		return lx.scanIdentOrKeyword()
	case ch >= utf8RuneSelf:
		if r, _ := lx.peekRune(); isIdentStartRune(r) {
			return lx.scanIdentOrKeyword()
		}
		lx.bumpRune()
		return token.Invalid
	default:
		return lx.scanOperatorOrPunct()
	}
}

func (lx *Scanner) peekIs(ahead uint32, b byte) bool {
	off := lx.cursor.Off + ahead
	return off < lx.cursor.Limit && lx.file.Content[off] == b
}
