package highlight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/tokenbuf"
)

func lex(t *testing.T, text string) (*source.File, []token.Token) {
	t.Helper()
	f := source.NewFile("hl.pas", []byte(text))
	buf, err := tokenbuf.Lex(context.Background(), lexer.New(f))
	require.NoError(t, err)
	return f, buf.Tokens()
}

func TestClassify(t *testing.T) {
	cases := map[token.Kind]Class{
		token.KwBegin:    Keyword,
		token.KwWhile:    Keyword,
		token.Comment:    Comment,
		token.String:     String,
		token.BadString:  Invalid,
		token.Number:     Number,
		token.Assign:     Operator,
		token.Semicolon:  Operator,
		token.Ident:      Identifier,
		token.Whitespace: None,
		token.EOF:        None,
		token.Invalid:    Invalid,
	}
	for k, want := range cases {
		assert.Equal(t, want, Classify(k), "kind %s", k)
	}
}

func TestRangesMergeBlockComment(t *testing.T) {
	f, toks := lex(t, "begin { one\ntwo } x := 'a'; end")
	rs := Ranges(toks)
	var got []string
	for _, r := range rs {
		got = append(got, r.Class.String()+":"+f.Slice(r.Span))
	}
	assert.Equal(t, []string{
		"keyword:begin",
		"comment:{ one\ntwo }",
		"identifier:x",
		"operator::=",
		"string:'a'",
		"operator:;",
		"keyword:end",
	}, got)
}

func TestSemanticTokensRelative(t *testing.T) {
	f, toks := lex(t, "begin\n  x := 1;\nend")
	data := SemanticTokens(f, toks)
	want := []uint32{
		0, 0, 5, 0, 0, // begin
		1, 2, 1, 5, 0, // x
		0, 2, 2, 4, 0, // :=
		0, 3, 1, 3, 0, // 1
		0, 1, 1, 4, 0, // ;
		1, 0, 3, 0, 0, // end
	}
	assert.Equal(t, want, data)
}

func TestSemanticTokensUTF16AndSplit(t *testing.T) {
	f, toks := lex(t, "'é😀' {a\nbc}")
	data := SemanticTokens(f, toks)
	want := []uint32{
		0, 0, 5, 2, 0, // 'é😀' is 1+1+2+1 code units
		0, 6, 2, 1, 0, // {a
		1, 0, 3, 1, 0, // bc}
	}
	assert.Equal(t, want, data)
}

func TestUTF16LenInvalidBytes(t *testing.T) {
	assert.Equal(t, uint32(2), UTF16Len([]byte{0xff, 'a'}))
}
