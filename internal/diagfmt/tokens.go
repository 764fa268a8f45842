package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"spring/internal/highlight"
	"spring/internal/source"
	"spring/internal/token"
)

type TokenOutput struct {
	Kind  string      `json:"kind"`
	Text  string      `json:"text,omitempty"`
	Span  source.Span `json:"span"`
	State *uint32     `json:"state,omitempty"`
	Class string      `json:"class,omitempty"`
}

// TokenOpts configures token listings.
type TokenOpts struct {
	Color      bool
	SkipTrivia bool
	ShowState  bool
	// ShowEOF closes a whole-file listing with the EOF token, which the
	// token buffer itself does not store.
	ShowEOF bool
}

func withEOF(tokens []token.Token, f *source.File, opts TokenOpts) []token.Token {
	if !opts.ShowEOF || (len(tokens) > 0 && tokens[len(tokens)-1].Kind == token.EOF) {
		return tokens
	}
	end := uint32(len(f.Content))
	out := make([]token.Token, len(tokens), len(tokens)+1)
	copy(out, tokens)
	return append(out, token.Token{Kind: token.EOF, Span: source.Span{Start: end, End: end}})
}

var classColors = map[highlight.Class][]color.Attribute{
	highlight.Keyword:    {color.FgMagenta, color.Bold},
	highlight.Comment:    {color.FgHiBlack},
	highlight.String:     {color.FgGreen},
	highlight.Number:     {color.FgCyan},
	highlight.Operator:   {color.FgYellow},
	highlight.Identifier: {color.FgWhite},
	highlight.Invalid:    {color.FgRed, color.Bold},
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, f *source.File, opts TokenOpts) error {
	n := 0
	for _, tok := range withEOF(tokens, f, opts) {
		if opts.SkipTrivia && tok.IsTrivia() {
			continue
		}
		n++
		startPos, endPos := f.Position(tok.Span.Start), f.Position(tok.Span.End)

		kind := fmt.Sprintf("%-15s", tok.Kind.String())
		if attrs, ok := classColors[highlight.Classify(tok.Kind)]; ok {
			c := color.New(attrs...)
			if opts.Color {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
			kind = c.Sprint(kind)
		}
		if _, err := fmt.Fprintf(w, "%3d: %s", n, kind); err != nil {
			return err
		}
		if text := f.Slice(tok.Span); text != "" {
			fmt.Fprintf(w, " %q", text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if opts.ShowState && tok.State.Usable() && tok.State != token.StateDefault {
			fmt.Fprintf(w, " [state %d]", tok.State)
		}
		fmt.Fprintln(w)
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token, f *source.File, opts TokenOpts) error {
	tokens = withEOF(tokens, f, opts)
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		if opts.SkipTrivia && tok.IsTrivia() {
			continue
		}
		out := TokenOutput{
			Kind: tok.Kind.String(),
			Text: f.Slice(tok.Span),
			Span: tok.Span,
		}
		if c := highlight.Classify(tok.Kind); c != highlight.None {
			out.Class = c.String()
		}
		if opts.ShowState && tok.State.Usable() {
			st := uint32(tok.State)
			out.State = &st
		}
		output = append(output, out)
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
