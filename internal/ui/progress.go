package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"spring/internal/bench"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	queuedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	workingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mismatchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
)

// fileRow is the last known state of one benchmarked file.
type fileRow struct {
	path  string
	last  bench.Event
	known bool
}

// fraction of the file's work that is finished, in [0, 1].
func (r fileRow) fraction() float64 {
	ev := r.last
	switch {
	case !r.known || ev.Status == bench.StatusQueued:
		return 0
	case ev.Status == bench.StatusDone || ev.Status == bench.StatusError:
		return 1
	case ev.Stage == bench.StageWarmup:
		return 0.05
	case ev.Stage == bench.StageParse:
		return 0.1
	case ev.Steps > 0:
		// edits take almost all of the run
		return 0.1 + 0.9*float64(ev.Step)/float64(ev.Steps)
	}
	return 0.1
}

func (r fileRow) status() (string, lipgloss.Style) {
	ev := r.last
	switch {
	case !r.known || ev.Status == bench.StatusQueued:
		return "queued", queuedStyle
	case ev.Status == bench.StatusError:
		return "error", failedStyle
	case ev.Status == bench.StatusDone:
		return "done", doneStyle
	case ev.Stage == bench.StageReparse && ev.Edit != "":
		return fmt.Sprintf("%s %d/%d", ev.Edit, ev.Step, ev.Steps), workingStyle
	}
	return string(ev.Stage), workingStyle
}

type benchProgress struct {
	title   string
	events  <-chan bench.Event
	spin    spinner.Model
	bar     progress.Model
	rows    []fileRow
	byPath  map[string]int
	started time.Time
	width   int
	done    bool
}

type eventMsg bench.Event

type closedMsg struct{}

// NewProgressModel renders one row per file fed by bench events and quits
// when events is closed.
func NewProgressModel(title string, files []string, events <-chan bench.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	m := &benchProgress{
		title:   title,
		events:  events,
		spin:    sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		rows:    make([]fileRow, len(files)),
		byPath:  make(map[string]int, len(files)),
		started: time.Now(),
		width:   80,
	}
	m.bar.Width = m.width - 4
	for i, f := range files {
		m.rows[i] = fileRow{path: f}
		m.byPath[f] = i
	}
	return m
}

func (m *benchProgress) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

func (m *benchProgress) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *benchProgress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(bench.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	}
	return m, nil
}

// apply records ev and returns the bar animation for the new total.
func (m *benchProgress) apply(ev bench.Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok || len(m.rows) == 0 {
		return nil
	}
	m.rows[i].last = ev
	m.rows[i].known = true
	return m.bar.SetPercent(m.percent())
}

func (m *benchProgress) percent() float64 {
	total := 0.0
	for _, r := range m.rows {
		total += r.fraction()
	}
	return total / float64(len(m.rows))
}

func (m *benchProgress) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	head := fmt.Sprintf("%s %s", m.spin.View(), m.title)
	if m.done {
		head = fmt.Sprintf("done: %s in %s", m.title, time.Since(m.started).Round(time.Millisecond))
	}
	b.WriteString(headerStyle.Render(head))
	b.WriteString("\n\n")

	const statusWidth = 24
	nameWidth := max(m.width-statusWidth-16, 20)
	for _, r := range m.rows {
		label, style := r.status()
		fmt.Fprintf(&b, "  %s %s", style.Render(pad(truncate(label, statusWidth), statusWidth)), truncate(r.path, nameWidth))
		if r.last.Elapsed > 0 {
			fmt.Fprintf(&b, " %s", queuedStyle.Render(r.last.Elapsed.Round(time.Microsecond*100).String()))
		}
		if n := r.last.Mismatches; n > 0 {
			fmt.Fprintf(&b, " %s", mismatchStyle.Render(fmt.Sprintf("%d mismatch(es)", n)))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// pad right-aligns s to width display cells.
func pad(s string, width int) string {
	if w := runewidth.StringWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
