package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"spring/internal/bench"
	"spring/internal/observ"
)

var (
	fasterStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	slowerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Underline(true)
	divergedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// BenchTable renders per-phase totals of every parser type side by side,
// with the speedup of the first type over the second.
func BenchTable(rep *bench.Report, types []bench.ParserType, styled bool) string {
	render := func(st lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return st.Render(s)
	}

	phases := phaseNames(rep, types)
	header := []string{"phase"}
	for _, typ := range types {
		header = append(header, typ.String()+" ms")
	}
	if len(types) == 2 {
		header = append(header, "speedup")
	}
	rows := [][]string{header}
	for _, name := range phases {
		row := []string{name}
		var avg [2]float64
		for i, typ := range types {
			p := findPhase(rep.Totals[typ], name)
			row = append(row, fmt.Sprintf("%.3f", p.AvgMS))
			if i < 2 {
				avg[i] = p.AvgMS
			}
		}
		if len(types) == 2 {
			row = append(row, speedup(avg[0], avg[1]))
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == 0 {
				cells[i] = runewidth.FillRight(cell, widths[i])
			} else {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			}
		}
		line := "  " + strings.Join(cells, "  ")
		switch {
		case r == 0:
			line = render(tableHeaderStyle, line)
		case len(types) == 2 && strings.HasSuffix(row[len(row)-1], "x"):
			if parseSpeedup(row[len(row)-1]) >= 1 {
				line = render(fasterStyle, line)
			} else {
				line = render(slowerStyle, line)
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if n := rep.Mismatches(); n > 0 {
		b.WriteString(render(divergedStyle, fmt.Sprintf("  %d edit(s) produced different trees", n)))
		b.WriteByte('\n')
		for _, f := range rep.Files {
			for _, m := range f.Mismatches {
				fmt.Fprintf(&b, "    %s %s#%d: %s\n", f.Path, m.Edit, m.Round, m.Diff)
			}
		}
	}
	return b.String()
}

func phaseNames(rep *bench.Report, types []bench.ParserType) []string {
	seen := map[string]bool{}
	var names []string
	for _, typ := range types {
		t := rep.Totals[typ]
		if t == nil {
			continue
		}
		for _, p := range t.Report().Phases {
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	// "parse" первым, остальные по алфавиту
	sort.SliceStable(names, func(i, j int) bool {
		if names[i] == "parse" || names[j] == "parse" {
			return names[i] == "parse" && names[j] != "parse"
		}
		return names[i] < names[j]
	})
	return names
}

func findPhase(t *observ.Timer, name string) observ.PhaseReport {
	if t == nil {
		return observ.PhaseReport{Name: name}
	}
	for _, p := range t.Report().Phases {
		if p.Name == name {
			return p
		}
	}
	return observ.PhaseReport{Name: name}
}

func speedup(a, b float64) string {
	if a <= 0 || b <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", b/a)
}

func parseSpeedup(s string) float64 {
	var v float64
	if _, err := fmt.Sscanf(strings.TrimSuffix(s, "x"), "%g", &v); err != nil {
		return 0
	}
	return v
}
