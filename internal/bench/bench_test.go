package bench

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spring/internal/lexer"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/tokenbuf"
)

const program = `begin
  { counters }
  total := 0;
  count := count + 1;
  (* nested
     comment *)
  WriteLn('total: ', total);
  begin
    x := (a + b) * c - 4;
    y := -x
  end;
end
`

func lexed(t *testing.T, text string) *tokenbuf.Buffer {
	t.Helper()
	f := source.NewFile("bench.pas", []byte(text))
	buf, err := tokenbuf.Lex(context.Background(), lexer.New(f))
	require.NoError(t, err)
	return buf
}

func TestParseParserType(t *testing.T) {
	for _, typ := range []ParserType{Incremental, Regular} {
		got, err := ParseParserType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseParserType("lazy")
	assert.Error(t, err)
}

// Замена первого begin даёт одинаковое дерево для обоих типов.
func TestReplaceFirstBeginSameTree(t *testing.T) {
	ctx := context.Background()
	f := source.NewFile("c.pas", []byte(program))
	inc := NewHarness(Incremental, f, parser.Options{})
	reg := NewHarness(Regular, f, parser.Options{})
	for _, h := range []*Harness{inc, reg} {
		_, err := h.ParseFile(ctx)
		require.NoError(t, err)
	}

	change, ok := ReplaceKeyword(token.KwBegin, "bXgin")(inc.TokenBuffer(), nil)
	require.True(t, ok)
	assert.Equal(t, source.Span{Start: 0, End: 5}, change.Range)

	a, err := inc.Apply(ctx, change)
	require.NoError(t, err)
	b, err := reg.Apply(ctx, change)
	require.NoError(t, err)
	assert.Equal(t, a.Dump(), b.Dump())
	assert.Equal(t, "bXgin", inc.File().Slice(source.Span{Start: 0, End: 5}))
	assert.Equal(t, inc.File().Content, reg.File().Content)
}

func TestRunNoMismatches(t *testing.T) {
	files := []*source.File{
		source.NewFile("a.pas", []byte(program)),
		source.NewFile("b.pas", []byte("begin x := 'unterminated\n y := 2; end")),
		source.NewFile("c.pas", []byte("")),
	}
	cfg := DefaultConfig()
	cfg.Warmup = 1
	cfg.Rounds = 20
	cfg.Jobs = 2

	var mu sync.Mutex
	var events []Event
	cfg.Sink = SinkFunc(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	rep, err := Run(context.Background(), files, cfg)
	require.NoError(t, err)
	require.Len(t, rep.Files, 3)
	for _, fr := range rep.Files {
		assert.Empty(t, fr.Mismatches, "file %s", fr.Path)
	}
	assert.Equal(t, 0, rep.Mismatches())

	p, ok := rep.Totals[Incremental].Phase("parse")
	require.True(t, ok)
	assert.Equal(t, 3, p.Count)
	_, ok = rep.Totals[Regular].Phase(PhaseName("substitute-char"))
	assert.True(t, ok)
	assert.Contains(t, rep.Files[2].Skipped, "substitute-char")

	done := 0
	for _, ev := range events {
		if ev.Status == StatusDone {
			done++
		}
	}
	assert.Equal(t, 3, done)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []*source.File{source.NewFile("a.pas", []byte(program))}, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSwapLexemesKeepsTrivia(t *testing.T) {
	buf := lexed(t, "a := b")
	rng := rand.New(rand.NewPCG(7, 7))
	c, ok := SwapLexemes(buf, rng)
	require.True(t, ok)
	next, _, err := source.Apply(buf.File(), c.Range, c.Text)
	require.NoError(t, err)
	assert.Contains(t, []string{":= a b", "a b :="}, string(next.Content))
}

func TestGeneratorsStayOnRuneBoundaries(t *testing.T) {
	buf := lexed(t, "x := 'ёжик';")
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		for _, gen := range []Generator{SubstituteChar, RandomEdit} {
			c, ok := gen(buf, rng)
			require.True(t, ok)
			next, _, err := source.Apply(buf.File(), c.Range, c.Text)
			require.NoError(t, err)
			assert.True(t, utf8.Valid(next.Content), "edit %v %q", c.Range, c.Text)
		}
	}
}

func TestEmptyTextGenerators(t *testing.T) {
	buf := lexed(t, "")
	rng := rand.New(rand.NewPCG(1, 1))
	_, ok := SubstituteChar(buf, rng)
	assert.False(t, ok)
	_, ok = SwapLexemes(buf, rng)
	assert.False(t, ok)
	c, ok := RandomEdit(buf, rng)
	assert.True(t, ok)
	assert.Equal(t, source.Span{}, c.Range)
	assert.NotEmpty(t, c.Text)
}
