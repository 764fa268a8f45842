package tokenbuf

import (
	"sort"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/token"
)

// Replay is a lexer that hands out the cached tokens of a Buffer
// instead of scanning. The parser uses it after a ReScan so that the
// text is lexed only once per edit.
type Replay struct {
	buf   *Buffer
	pos   int
	limit uint32
}

var _ lexer.Resumable = (*Replay)(nil)

// Lexer returns a replaying lexer positioned at offset 0.
func (b *Buffer) Lexer() *Replay {
	return &Replay{buf: b, limit: b.TextLen()}
}

// Buffer returns the buffer being replayed.
func (r *Replay) Buffer() *Buffer { return r.buf }

func (r *Replay) File() *source.File { return r.buf.file }

func (r *Replay) Reset() {
	r.pos = 0
	r.limit = r.buf.TextLen()
}

// Resume positions the replay at the token starting at from. The state
// is already recorded in the tokens and is ignored.
func (r *Replay) Resume(from, limit uint32, _ token.State) {
	toks := r.buf.tokens
	r.pos = sort.Search(len(toks), func(i int) bool { return toks[i].Span.Start >= from })
	r.limit = limit
}

func (r *Replay) Next() token.Token {
	toks := r.buf.tokens
	if r.pos < len(toks) && toks[r.pos].Span.End <= r.limit {
		tok := toks[r.pos]
		r.pos++
		return tok
	}
	off := r.buf.TextLen()
	state := token.StateDefault
	if r.pos > 0 {
		off = toks[r.pos-1].Span.End
		state = toks[r.pos-1].State
	}
	return token.Token{Kind: token.EOF, Span: source.Span{Start: off, End: off}, State: state}
}
