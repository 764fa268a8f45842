package source

import "testing"

func TestSpanShift(t *testing.T) {
	tests := []struct {
		name  string
		span  Span
		delta int
		want  Span
	}{
		{"right", Span{Start: 10, End: 20}, 5, Span{Start: 15, End: 25}},
		{"left", Span{Start: 10, End: 20}, -5, Span{Start: 5, End: 15}},
		{"zero", Span{Start: 10, End: 20}, 0, Span{Start: 10, End: 20}},
		{"left to zero", Span{Start: 10, End: 20}, -10, Span{Start: 0, End: 10}},
		{"underflow keeps span", Span{Start: 3, End: 4}, -10, Span{Start: 3, End: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.Shift(tt.delta); got != tt.want {
				t.Errorf("Shift(%d) = %s, want %s", tt.delta, got, tt.want)
			}
		})
	}
}

func TestInvalidSpan(t *testing.T) {
	if InvalidSpan.IsValid() {
		t.Fatal("InvalidSpan must not be valid")
	}
	if !(Span{}).IsValid() {
		t.Fatal("empty span at zero is valid")
	}
	s := Span{Start: 4, End: 8}
	if got := InvalidSpan.Cover(s); got != s {
		t.Errorf("Cover with invalid = %s", got)
	}
	if got := s.Cover(Span{Start: 1, End: 5}); got != (Span{Start: 1, End: 8}) {
		t.Errorf("Cover = %s", got)
	}
	if !s.Covers(Span{Start: 4, End: 8}) || s.Covers(Span{Start: 3, End: 5}) {
		t.Error("Covers mismatch")
	}
}

func TestDiffEdit(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		want     Span
		inserted string
	}{
		{"insert middle", "begin end", "begin x; end", Span{Start: 6, End: 6}, "x; "},
		{"delete", "begin x; end", "begin end", Span{Start: 6, End: 9}, ""},
		{"replace", "a := 1", "a := 22", Span{Start: 5, End: 6}, "22"},
		{"identical", "abc", "abc", Span{Start: 3, End: 3}, ""},
		{"from empty", "", "abc", Span{Start: 0, End: 0}, "abc"},
		{"utf8", "x := 'привет'", "x := 'привет!'", Span{Start: 18, End: 18}, "!"},
		{"rune changed", "ab\u00e9", "ab\u00e8", Span{Start: 2, End: 4}, "\u00e8"},
		{"invalid bytes before change", "x := 1; \xff\xff\xff\xff y := 2;", "x := 1; \xff\xff\xff\xff 7 := 2;", Span{Start: 13, End: 14}, "7"},
		{"invalid bytes wide change", "x := 1; \xff\xff\xff\xff\xff\xff a b c d e f g h;", "x := 1; \xff\xff\xff\xff\xff\xff 1.1.1.1.1.1.1.1;", Span{Start: 15, End: 30}, "1.1.1.1.1.1.1.1"},
		{"invalid with split rune", "\xff\xc3\xa9x", "\xff\xc3\xa8x", Span{Start: 1, End: 3}, "\xc3\xa8"},
		{"invalid delete", "\xfe\xfeab\xfe", "\xfe\xfe\xfe", Span{Start: 2, End: 4}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := NewFile("a.pas", []byte(tt.old))
			next := NewFile("a.pas", []byte(tt.new))
			e := DiffEdit(old, next)
			if e.Range != tt.want {
				t.Fatalf("range = %s, want %s", e.Range, tt.want)
			}
			if got := next.Slice(e.Inserted()); got != tt.inserted {
				t.Errorf("inserted = %q, want %q", got, tt.inserted)
			}
			replayed, _, err := Apply(old, e.Range, []byte(next.Slice(e.Inserted())))
			if err != nil {
				t.Fatal(err)
			}
			if string(replayed.Content) != tt.new {
				t.Errorf("replaying the edit gives %q, want %q", replayed.Content, tt.new)
			}
		})
	}
}
