package tokenbuf

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/trace"
)

// Buffer is the immutable token sequence of one snapshot.
type Buffer struct {
	file     *source.File
	tokens   []token.Token
	affected source.Span
}

// Lex tokenizes the whole text of lx from offset 0.
func Lex(ctx context.Context, lx lexer.Lexer) (*Buffer, error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, "lex")
	f := lx.File()
	lx.Reset()
	toks, err := drain(ctx, lx, make([]token.Token, 0, len(f.Content)/4+1))
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	span.Attr("tokens", strconv.Itoa(len(toks))).End("")
	return &Buffer{file: f, tokens: toks, affected: source.Whole(f).Span}, nil
}

func drain(ctx context.Context, lx lexer.Lexer, into []token.Token) ([]token.Token, error) {
	check := NewInterruptChecker(ctx)
	for {
		if err := check.Check(); err != nil {
			return nil, err
		}
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return into, nil
		}
		into = append(into, tok)
	}
}

// FromTokens wraps an already lexed sequence after validating it.
// The slice is owned by the buffer afterwards.
func FromTokens(f *source.File, toks []token.Token) (*Buffer, error) {
	b := &Buffer{file: f, tokens: toks, affected: source.Whole(f).Span}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer) File() *source.File { return b.file }

func (b *Buffer) Len() int { return len(b.tokens) }

func (b *Buffer) At(i int) token.Token { return b.tokens[i] }

// Tokens returns a copy of the sequence.
func (b *Buffer) Tokens() []token.Token {
	out := make([]token.Token, len(b.tokens))
	copy(out, b.tokens)
	return out
}

// Affected is the range recomputed by the ReScan that produced b, or
// the whole text for a buffer lexed from scratch.
func (b *Buffer) Affected() source.Span { return b.affected }

// TextLen is the length of the text the tokens cover.
func (b *Buffer) TextLen() uint32 {
	if len(b.tokens) == 0 {
		return 0
	}
	return b.tokens[len(b.tokens)-1].Span.End
}

// FindTokenAt returns the index of the token containing off, or -1
// when off is at or past the end of the text.
func (b *Buffer) FindTokenAt(off uint32) int {
	i := sort.Search(len(b.tokens), func(i int) bool {
		return b.tokens[i].Span.End > off
	})
	if i == len(b.tokens) {
		return -1
	}
	return i
}

// TokensIn returns the tokens overlapping span (a copy).
func (b *Buffer) TokensIn(span source.Span) []token.Token {
	if !span.IsValid() {
		return nil
	}
	lo := sort.Search(len(b.tokens), func(i int) bool { return b.tokens[i].Span.End > span.Start })
	hi := lo
	for hi < len(b.tokens) && (b.tokens[hi].Span.Start < span.End || (span.Empty() && hi == lo)) {
		hi++
	}
	out := make([]token.Token, hi-lo)
	copy(out, b.tokens[lo:hi])
	return out
}

// Validate checks that the tokens tile the text: contiguous, non-empty,
// starting at 0 and ending at the text length.
func (b *Buffer) Validate() error {
	var off uint32
	for i, tok := range b.tokens {
		if tok.Span.Start != off {
			return fmt.Errorf("%w: token %d %s starts at %d, expected %d", ErrCoverage, i, tok, tok.Span.Start, off)
		}
		if tok.Span.End <= tok.Span.Start {
			return fmt.Errorf("%w: token %d %s is empty", ErrCoverage, i, tok)
		}
		off = tok.Span.End
	}
	if n := b.file.Len(); off != n {
		return fmt.Errorf("%w: tokens end at %d, text has %d bytes", ErrCoverage, off, n)
	}
	return nil
}

// Equal reports whether two buffers hold the same (kind, span) sequence.
func Equal(a, b *Buffer) bool {
	return FirstDifference(a, b) < 0
}

// FirstDifference returns the index of the first token whose kind or
// span differs, or -1 when the sequences agree.
func FirstDifference(a, b *Buffer) int {
	n := min(len(a.tokens), len(b.tokens))
	for i := 0; i < n; i++ {
		if a.tokens[i].Kind != b.tokens[i].Kind || a.tokens[i].Span != b.tokens[i].Span {
			return i
		}
	}
	if len(a.tokens) != len(b.tokens) {
		return n
	}
	return -1
}
