package diag

import (
	"testing"

	"spring/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	f := source.NewFile("testdata/golden/sample.pas", []byte("a\nb\n"))

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     LexUnknownChar,
			Message:  "another",
			Primary:  source.Span{Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     SynUnexpectedToken,
			Message:  "first line\nsecond",
			Primary:  source.Span{Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{Start: 40, End: 41}, Msg: "outside the file"},
				{Span: source.Span{Start: 2, End: 3}, Msg: "note line"},
			},
		},
	}

	expected := "error SYN2001 testdata/golden/sample.pas:1:1 first line second\n" +
		"note SYN2001 testdata/golden/sample.pas:2:1 note line\n" +
		"warning LEX1001 testdata/golden/sample.pas:2:1 another"

	if got := FormatGoldenDiagnostics(diags, f, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(2)
	r := Dedup(BagReporter{Bag: bag})
	span := source.Span{Start: 1, End: 2}
	r.Report(NewError(SynExpectSemicolon, span, "Expected ';' but 'x' is given."))
	r.Report(NewError(SynExpectSemicolon, span, "Expected ';' but 'x' is given."))
	r.Report(New(SevWarning, LexUnknownChar, source.Span{Start: 0, End: 1}, "Unknown character '~'.").
		WithFix("remove", FixEdit{Span: source.Span{Start: 0, End: 1}}))
	r.Report(NewError(SynExpectEnd, span, "dropped"))

	if bag.Len() != 2 || !bag.Full() {
		t.Fatalf("expected 2 diagnostics in a full bag, got %d", bag.Len())
	}
	bag.Sort()
	if bag.Items()[0].Code != LexUnknownChar || len(bag.Items()[0].Fixes) != 1 {
		t.Fatalf("unexpected order: %+v", bag.Items())
	}
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		SynExpectSemicolon: "SYN2012",
		LexUnknownChar:     "LEX1001",
		IOLoadFileError:    "IO4001",
		UnknownCode:        "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d: got %s, want %s", code, got, want)
		}
	}
	if Code(2500).Title() != "Unknown error" {
		t.Fatal("unknown code must fall back to the generic title")
	}
}
