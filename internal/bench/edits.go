package bench

import (
	"math/rand/v2"
	"unicode/utf8"

	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/tokenbuf"
)

// Alphabet is the pool of replacement characters for random edits.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789;()_:"

// Change is one synthetic edit in the coordinates of the text it was
// generated for.
type Change struct {
	Range source.Span
	Text  []byte
}

// Generator proposes a change for the text behind buf. ok is false
// when the text offers nothing to edit.
type Generator func(buf *tokenbuf.Buffer, rng *rand.Rand) (c Change, ok bool)

// EditKind names a generator for reports.
type EditKind struct {
	Name string
	Gen  Generator
}

// DefaultEdits is the set run by `spring bench`.
func DefaultEdits() []EditKind {
	return []EditKind{
		{Name: "substitute-char", Gen: SubstituteChar},
		{Name: "swap-lexemes", Gen: SwapLexemes},
		{Name: "replace-begin", Gen: ReplaceKeyword(token.KwBegin, "bXgin")},
		{Name: "random", Gen: RandomEdit},
	}
}

// SubstituteChar replaces one rune with a random Alphabet character.
func SubstituteChar(buf *tokenbuf.Buffer, rng *rand.Rand) (Change, bool) {
	content := buf.File().Content
	if len(content) == 0 {
		return Change{}, false
	}
	off := runeStart(content, rng.IntN(len(content)))
	_, size := utf8.DecodeRune(content[off:])
	return Change{
		Range: source.NewSpan(off, off+size),
		Text:  []byte{Alphabet[rng.IntN(len(Alphabet))]},
	}, true
}

// SwapLexemes exchanges two neighbouring significant tokens, keeping
// the trivia between them.
func SwapLexemes(buf *tokenbuf.Buffer, rng *rand.Rand) (Change, bool) {
	sig := significant(buf)
	if len(sig) < 2 {
		return Change{}, false
	}
	i := rng.IntN(len(sig) - 1)
	a, b := sig[i].Span, sig[i+1].Span
	f := buf.File()
	text := make([]byte, 0, b.End-a.Start)
	text = append(text, f.Content[b.Start:b.End]...)
	text = append(text, f.Content[a.End:b.Start]...)
	text = append(text, f.Content[a.Start:a.End]...)
	return Change{Range: source.Span{Start: a.Start, End: b.End}, Text: text}, true
}

// ReplaceKeyword rewrites the first token of kind with text.
func ReplaceKeyword(kind token.Kind, text string) Generator {
	return func(buf *tokenbuf.Buffer, _ *rand.Rand) (Change, bool) {
		for _, tok := range buf.Tokens() {
			if tok.Kind == kind {
				return Change{Range: tok.Span, Text: []byte(text)}, true
			}
		}
		return Change{}, false
	}
}

// RandomEdit inserts, deletes or replaces a short run of characters.
func RandomEdit(buf *tokenbuf.Buffer, rng *rand.Rand) (Change, bool) {
	content := buf.File().Content
	start := runeStart(content, rng.IntN(len(content)+1))
	end := start
	for n := rng.IntN(4); n > 0 && end < len(content); n-- {
		_, size := utf8.DecodeRune(content[end:])
		end += size
	}
	text := make([]byte, rng.IntN(4))
	for i := range text {
		text[i] = Alphabet[rng.IntN(len(Alphabet))]
	}
	if start == end && len(text) == 0 {
		text = append(text, ' ')
	}
	return Change{Range: source.NewSpan(start, end), Text: text}, true
}

func significant(buf *tokenbuf.Buffer) []token.Token {
	out := make([]token.Token, 0, buf.Len())
	for _, tok := range buf.Tokens() {
		if !tok.IsTrivia() && tok.Kind != token.EOF {
			out = append(out, tok)
		}
	}
	return out
}

func runeStart(content []byte, off int) int {
	for off > 0 && off < len(content) && !utf8.RuneStart(content[off]) {
		off--
	}
	return off
}
