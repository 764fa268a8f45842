package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"spring/internal/diag"
	"spring/internal/source"
)

type palette struct {
	sev    map[diag.Severity]*color.Color
	code   *color.Color
	gutter *color.Color
	caret  *color.Color
	note   *color.Color
	fix    *color.Color
	minus  *color.Color
	plus   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevInfo:    mk(color.FgCyan, color.Bold),
		},
		code:   mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgRed, color.Bold),
		note:   mk(color.FgCyan),
		fix:    mk(color.FgGreen),
		minus:  mk(color.FgRed),
		plus:   mk(color.FgGreen),
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, diags []diag.Diagnostic, f *source.File, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for i := range diags {
		if err := prettyOne(w, &diags[i], f, opts, p); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d *diag.Diagnostic, f *source.File, opts PrettyOpts, p palette) error {
	sevColor := p.sev[d.Severity]
	if sevColor == nil {
		sevColor = p.code
	}
	var b strings.Builder
	pos := source.LineCol{Line: 1, Col: 1}
	valid := d.Primary.IsValid() && d.Primary.End <= f.Len()
	if valid {
		pos = f.Position(d.Primary.Start)
	}
	fmt.Fprintf(&b, "%s:%d:%d: %s %s: %s\n",
		f.Path, pos.Line, pos.Col,
		sevColor.Sprint(d.Severity.String()),
		p.code.Sprint(d.Code.ID()),
		d.Message)

	if valid {
		writeSnippet(&b, f, d.Primary, opts, p)
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			np := f.Position(n.Span.Start)
			fmt.Fprintf(&b, "  %s %d:%d: %s\n", p.note.Sprint("note:"), np.Line, np.Col, n.Msg)
		}
	}
	if opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(&b, "  %s %s\n", p.fix.Sprint("fix:"), fix.Title)
			if !opts.ShowPreview {
				continue
			}
			for _, edit := range fix.Edits {
				pv, err := buildFixEditPreview(f, edit)
				if err != nil {
					continue
				}
				for _, l := range pv.before {
					fmt.Fprintf(&b, "    %s %s\n", p.minus.Sprint("-"), l)
				}
				for _, l := range pv.after {
					fmt.Fprintf(&b, "    %s %s\n", p.plus.Sprint("+"), l)
				}
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSnippet(b *strings.Builder, f *source.File, span source.Span, opts PrettyOpts, p palette) {
	start := f.Position(span.Start)
	ctx := uint32(max(opts.Context, 0))
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := min(start.Line+ctx, f.LineCount())
	gw := len(fmt.Sprint(last))

	for line := first; line <= last; line++ {
		text := clip(strings.ReplaceAll(f.GetLine(line), "\t", "    "), opts.Width)
		fmt.Fprintf(b, " %s %s %s\n", p.gutter.Sprintf("%*d", gw, line), p.gutter.Sprint("|"), text)
		if line != start.Line {
			continue
		}
		lineStart, _ := f.LineStart(line)
		lineText := f.GetLine(line)
		prefix := strings.ReplaceAll(lineText[:span.Start-lineStart], "\t", "    ")
		endOff := min(span.End-lineStart, uint32(len(lineText)))
		under := lineText[span.Start-lineStart : endOff]
		width := max(runewidth.StringWidth(under), 1)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(b, " %s %s %s%s\n", strings.Repeat(" ", gw), p.gutter.Sprint("|"),
			strings.Repeat(" ", runewidth.StringWidth(prefix)), p.caret.Sprint(marker))
	}
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "...")
}
