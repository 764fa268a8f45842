package tokenbuf_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/tokenbuf"
)

type rescanCase struct {
	name string
	src  string
	at   source.Span
	text string
}

var rescanCases = []rescanCase{
	{"insert-ident-char", "begin x := 1; end", source.Span{Start: 7, End: 7}, "y"},
	{"delete-all", "begin x := 1; end", source.Span{Start: 0, End: 17}, ""},
	{"into-empty", "", source.Span{Start: 0, End: 0}, "begin end"},
	{"append", "x := 1", source.Span{Start: 6, End: 6}, "2;"},
	{"prepend", "x := 1", source.Span{Start: 0, End: 0}, "  "},
	{"open-brace-comment", "a := 1;\nb := 2;\nc := 3;\n", source.Span{Start: 8, End: 8}, "{"},
	{"close-brace-comment", "a := 1;\n{b := 2;\nc := 3;\n", source.Span{Start: 8, End: 9}, ""},
	{"open-paren-comment", "x := y;\nz := w;", source.Span{Start: 8, End: 8}, "(*"},
	{"quote-line", "x := y;\nz := w;\nq := 1;", source.Span{Start: 5, End: 5}, "'"},
	{"string-body", "writeln('hello world'); x := 1", source.Span{Start: 12, End: 13}, "L"},
	{"join-idents", "ab cd ef gh", source.Span{Start: 2, End: 3}, ""},
	{"split-number", "x := 12345 + 6", source.Span{Start: 7, End: 7}, " "},
	{"number-to-range", "a := 3.4;", source.Span{Start: 6, End: 7}, ".."},
	{"keyword-to-ident", "begin end begin end", source.Span{Start: 9, End: 9}, "x"},
	{"crlf-like", "a\nb\nc\nd", source.Span{Start: 3, End: 4}, "\n\n\n"},
	{"utf8", "x := 'π'; y := z", source.Span{Start: 6, End: 8}, "ρσ"},
}

var factories = map[string]lexer.Factory{
	"resumable": lexer.ResumableFactory(),
	"plain":     lexer.PlainFactory(),
}

func applyEdit(t tb, b *tokenbuf.Buffer, at source.Span, text string, f lexer.Factory, opts tokenbuf.Options) (*tokenbuf.Buffer, source.Edit) {
	t.Helper()
	next, edit, err := source.Apply(b.File(), at, []byte(text))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, err := b.Apply(context.Background(), edit, f, opts)
	if err != nil {
		t.Fatalf("rescan %q at %s with %q: %v", b.File().Content, at, text, err)
	}
	if out.File() != next {
		t.Fatal("rescan result is not bound to the new snapshot")
	}
	return out, edit
}

// checkRescan compares out with a fresh lex and checks that the
// affected range covers every token that changed.
func checkRescan(t tb, old, out *tokenbuf.Buffer, edit source.Edit, f lexer.Factory) {
	t.Helper()
	want, err := tokenbuf.Lex(context.Background(), f.New(out.File()))
	if err != nil {
		t.Fatalf("full lex: %v", err)
	}
	if i := tokenbuf.FirstDifference(want, out); i >= 0 {
		t.Fatalf("%q -> %q: token %d differs\n got  %v\n want %v",
			old.File().Content, out.File().Content, i, out.Tokens(), want.Tokens())
	}
	for i := 0; i < out.Len(); i++ {
		if out.At(i).State != want.At(i).State {
			t.Fatalf("token %d: state %d, want %d", i, out.At(i).State, want.At(i).State)
		}
	}
	if err := out.Validate(); err != nil {
		t.Fatal(err)
	}

	aff := out.Affected()
	ins := edit.Inserted()
	if aff.Start > ins.Start || aff.End < ins.End {
		t.Fatalf("affected %s does not cover edit %s", aff, ins)
	}
	delta := edit.Delta()
	for i := 0; i < out.Len(); i++ {
		tok := out.At(i)
		switch {
		case tok.Span.End <= aff.Start:
			if i >= old.Len() || old.At(i) != tok {
				t.Fatalf("token %v before affected %s is not reused", tok, aff)
			}
		case tok.Span.Start >= aff.End:
			j := old.FindTokenAt(uint32(int(tok.Span.Start) - delta))
			if j < 0 || old.At(j).Shift(delta) != tok {
				t.Fatalf("token %v after affected %s is not reused", tok, aff)
			}
		}
	}
}

func TestReScanCases(t *testing.T) {
	for fname, f := range factories {
		for _, tc := range rescanCases {
			t.Run(fname+"/"+tc.name, func(t *testing.T) {
				old, err := tokenbuf.Lex(context.Background(), f.New(makeFile(tc.src)))
				if err != nil {
					t.Fatal(err)
				}
				out, edit := applyEdit(t, old, tc.at, tc.text, f, tokenbuf.DefaultOptions())
				checkRescan(t, old, out, edit, f)
			})
		}
	}
}

func TestReScanInsideStringAffectsOnlyLiteral(t *testing.T) {
	src := "begin\n  x := 1;\n  writeln('hello world');\n  y := 2;\nend.\n"
	old := lexString(t, src)
	at := uint32(strings.Index(src, "world"))
	out, edit := applyEdit(t, old, source.Span{Start: at, End: at + 1}, "W", lexer.ResumableFactory(), tokenbuf.DefaultOptions())
	checkRescan(t, old, out, edit, lexer.ResumableFactory())

	lit := out.At(out.FindTokenAt(at))
	if lit.Kind != token.String {
		t.Fatalf("expected string literal at %d, got %v", at, lit)
	}
	if out.Affected() != lit.Span {
		t.Fatalf("affected %s, expected literal span %s", out.Affected(), lit.Span)
	}
}

func TestReScanReusesSuffix(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("x := x + 1;\n")
	}
	src := sb.String()
	old := lexString(t, src)
	out, edit := applyEdit(t, old, source.Span{Start: 12, End: 13}, "yy", lexer.ResumableFactory(), tokenbuf.DefaultOptions())
	checkRescan(t, old, out, edit, lexer.ResumableFactory())
	if aff := out.Affected(); aff.Len() > 12 {
		t.Fatalf("affected %s is too wide for a one-identifier edit", aff)
	}
}

func TestReScanDoesNotTouchReceiver(t *testing.T) {
	old := lexString(t, "a := 1;\nb := 2;")
	before := old.Tokens()
	_, _ = applyEdit(t, old, source.Span{Start: 0, End: 1}, "{", lexer.ResumableFactory(), tokenbuf.DefaultOptions())
	after := old.Tokens()
	if len(before) != len(after) {
		t.Fatalf("receiver length changed %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("receiver token %d changed: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestReScanCancelled(t *testing.T) {
	for fname, f := range factories {
		old, err := tokenbuf.Lex(context.Background(), f.New(makeFile(strings.Repeat("a := b;\n", 50))))
		if err != nil {
			t.Fatal(err)
		}
		_, edit, err := source.Apply(old.File(), source.Span{Start: 200, End: 201}, []byte("zz"))
		if err != nil {
			t.Fatal(err)
		}
		before := old.Tokens()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out, err := old.Apply(ctx, edit, f, tokenbuf.DefaultOptions())
		if !errors.Is(err, context.Canceled) || out != nil {
			t.Fatalf("%s: expected context.Canceled and no buffer, got %v, %v", fname, out, err)
		}
		if old.File() != edit.Old || old.Len() != len(before) || old.At(old.Len()-1) != before[len(before)-1] {
			t.Fatalf("%s: receiver changed after cancellation", fname)
		}
	}
}

func TestReScanRangeErrors(t *testing.T) {
	old := lexString(t, "abc")
	next := makeFile("abXc")
	ctx := context.Background()
	f := lexer.ResumableFactory()

	if _, err := old.ReScan(ctx, source.Span{Start: 2, End: 9}, f, source.BufferRange{File: next, Span: source.InvalidSpan}, tokenbuf.Options{}); !errors.Is(err, tokenbuf.ErrRangeOutOfBounds) {
		t.Fatalf("expected ErrRangeOutOfBounds, got %v", err)
	}
	if _, err := old.ReScan(ctx, source.Span{Start: 2, End: 2}, f, source.BufferRange{File: next, Span: source.Span{Start: 1, End: 3}}, tokenbuf.Options{}); !errors.Is(err, tokenbuf.ErrRangeMismatch) {
		t.Fatalf("expected ErrRangeMismatch, got %v", err)
	}
	if _, err := old.ReScan(ctx, source.Span{Start: 0, End: 0}, f, source.BufferRange{File: makeFile("")}, tokenbuf.Options{}); !errors.Is(err, tokenbuf.ErrRangeMismatch) {
		t.Fatalf("expected ErrRangeMismatch for impossible shrink, got %v", err)
	}
	out, err := old.ReScan(ctx, source.Span{Start: 2, End: 2}, f, source.BufferRange{File: next, Span: source.InvalidSpan}, tokenbuf.Options{})
	if err != nil {
		t.Fatalf("derived new range: %v", err)
	}
	if out.Len() != 1 || out.At(0).Span.End != 4 {
		t.Fatalf("unexpected tokens %v", out.Tokens())
	}

	stale := source.Edit{Old: makeFile("abc"), Range: source.Span{Start: 0, End: 0}, New: next}
	if _, err := old.Apply(ctx, stale, f, tokenbuf.Options{}); !errors.Is(err, tokenbuf.ErrStaleEdit) {
		t.Fatalf("expected ErrStaleEdit, got %v", err)
	}
}

func TestReScanWiderMargin(t *testing.T) {
	opts := tokenbuf.Options{LookbackMargin: 4, SyncRun: 5}
	for _, f := range factories {
		for _, tc := range rescanCases {
			old, err := tokenbuf.Lex(context.Background(), f.New(makeFile(tc.src)))
			if err != nil {
				t.Fatal(err)
			}
			out, edit := applyEdit(t, old, tc.at, tc.text, f, opts)
			checkRescan(t, old, out, edit, f)
		}
	}
}

func TestReScanWithDerivedEditOverInvalidBytes(t *testing.T) {
	pairs := [][2]string{
		{"x := 1; \xff\xff\xff\xff y := 2;", "x := 1; \xff\xff\xff\xff 7 := 2;"},
		{"x := 1; \xff\xff\xff\xff\xff\xff a b c d e f g h;", "x := 1; \xff\xff\xff\xff\xff\xff 1.1.1.1.1.1.1.1;"},
		{"{ \xc3\xa9 } a := 'x\xff';", "{ \xc3\xa8 } a := 'x\xfe';"},
	}
	for name, f := range factories {
		for _, p := range pairs {
			old, err := tokenbuf.Lex(context.Background(), f.New(makeFile(p[0])))
			if err != nil {
				t.Fatal(err)
			}
			edit := source.DiffEdit(old.File(), source.NewFile("test.pas", []byte(p[1])))
			out, err := old.Apply(context.Background(), edit, f, tokenbuf.Options{})
			if err != nil {
				t.Fatalf("%s: %q: %v", name, p[1], err)
			}
			checkRescan(t, old, out, edit, f)
		}
	}
}

func TestReScanChainOfEdits(t *testing.T) {
	f := lexer.ResumableFactory()
	b := lexString(t, "begin\nend.")
	edits := []struct {
		at   uint32
		text string
	}{
		{6, "  x := 1;\n"}, {16, "  y := x * 2;\n"}, {6, "{ "}, {8, "} "}, {13, "''"}, {0, "program p;\n"},
	}
	for _, e := range edits {
		old := b
		var edit source.Edit
		b, edit = applyEdit(t, old, source.Span{Start: e.at, End: e.at}, e.text, f, tokenbuf.DefaultOptions())
		checkRescan(t, old, b, edit, f)
	}
}

// Resumable lexers carry state, so any fragment mix is safe.
var resumablePieces = []string{
	"begin", "end", "x", "y1", " ", "\n", "\t", ":=", ";", "(", ")", "+", "*", ".", "..",
	"12", "3.", "$F", "'", "''", "{", "}", "(*", "*)", "//", "é", "~", "<", ">", "=",
}

// Plain lexers resync on runs of agreeing tokens; block comments can
// make a run of identical lines look equal under different modes, so
// they are left out here.
var plainPieces = []string{
	"begin", "end", "x", "y1", " ", "\n", ":=", ";", "(", ")", "+", "-", ".", "..",
	"12", "3.", "$F", "'", "''", "//", "é", "<", ">", "=",
}

func drawText(rt *rapid.T, pieces []string, label string) string {
	parts := rapid.SliceOfN(rapid.SampledFrom(pieces), 0, 40).Draw(rt, label)
	return strings.Join(parts, "")
}

func rescanProperty(pieces []string, f lexer.Factory) func(*rapid.T) {
	return func(rt *rapid.T) {
		src := drawText(rt, pieces, "src")
		start := rapid.IntRange(0, len(src)).Draw(rt, "start")
		end := rapid.IntRange(start, len(src)).Draw(rt, "end")
		text := drawText(rt, pieces, "text")
		margin := rapid.IntRange(1, 3).Draw(rt, "margin")

		old, err := tokenbuf.Lex(context.Background(), f.New(makeFile(src)))
		if err != nil {
			rt.Fatal(err)
		}
		out, edit := applyEdit(rt, old, source.NewSpan(start, end), text, f, tokenbuf.Options{LookbackMargin: margin})
		checkRescan(rt, old, out, edit, f)
	}
}

func TestReScanMatchesFullLexResumable(t *testing.T) {
	rapid.Check(t, rescanProperty(resumablePieces, lexer.ResumableFactory()))
}

func TestReScanMatchesFullLexPlain(t *testing.T) {
	rapid.Check(t, rescanProperty(plainPieces, lexer.PlainFactory()))
}
