package diag

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"spring/internal/source"
)

type goldenLine struct {
	label string
	code  string
	pos   source.LineCol
	msg   string
}

// FormatGoldenDiagnostics renders the diagnostics of one snapshot one per
// line, "label CODE path:line:col message", sorted by position. Spans
// outside f are skipped. Two parses of the same text produce the same
// string.
func FormatGoldenDiagnostics(diags []Diagnostic, f *source.File, includeNotes bool) string {
	if f == nil || len(diags) == 0 {
		return ""
	}
	inFile := func(sp source.Span) bool { return sp.IsValid() && sp.End <= f.Len() }

	lines := make([]goldenLine, 0, len(diags))
	for _, d := range diags {
		if inFile(d.Primary) {
			lines = append(lines, goldenLine{d.Severity.Label(), d.Code.ID(), f.Position(d.Primary.Start), oneLine(d.Message)})
		}
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			if inFile(n.Span) {
				lines = append(lines, goldenLine{"note", d.Code.ID(), f.Position(n.Span.Start), oneLine(n.Msg)})
			}
		}
	}
	slices.SortStableFunc(lines, func(a, b goldenLine) int {
		return cmp.Or(
			cmp.Compare(a.pos.Line, b.pos.Line),
			cmp.Compare(a.pos.Col, b.pos.Col),
			cmp.Compare(a.label, b.label),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.msg, b.msg),
		)
	})

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%s %s %s:%d:%d %s", l.label, l.code, f.Path, l.pos.Line, l.pos.Col, l.msg)
	}
	return strings.Join(out, "\n")
}

func oneLine(msg string) string {
	msg = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg)
	return strings.TrimSpace(msg)
}
