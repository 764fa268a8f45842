package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase records the duration of a pass. Phases fed through Record
// accumulate: Dur is the sum, Count the number of samples.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Min   time.Duration
	Max   time.Duration
	Count int
	Note  string
}

// Timer tracks the duration of lex, rescan and parse passes.
// It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	byName map[string]int
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 8), byName: make(map[string]int)}
}

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Min, p.Max = p.Dur, p.Dur
	p.Count = 1
	p.Note = note
}

// Record adds one sample to the phase called name, creating it on first use.
func (t *Timer) Record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx, ok := t.byName[name]
	if !ok {
		t.phases = append(t.phases, Phase{Name: name, Start: time.Now(), Min: d})
		idx = len(t.phases) - 1
		t.byName[name] = idx
	}
	p := &t.phases[idx]
	p.Dur += d
	p.Count++
	if d < p.Min {
		p.Min = d
	}
	if d > p.Max {
		p.Max = d
	}
}

// Measure runs fn and records its duration under name.
func (t *Timer) Measure(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	t.Record(name, time.Since(start))
	return err
}

// Merge folds the samples of other into t.
func (t *Timer) Merge(other *Timer) {
	if other == nil || other == t {
		return
	}
	other.mu.Lock()
	phases := append([]Phase(nil), other.phases...)
	other.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, src := range phases {
		idx, ok := t.byName[src.Name]
		if !ok {
			t.phases = append(t.phases, src)
			t.byName[src.Name] = len(t.phases) - 1
			continue
		}
		p := &t.phases[idx]
		if p.Count == 0 || src.Min < p.Min {
			p.Min = src.Min
		}
		if src.Max > p.Max {
			p.Max = src.Max
		}
		p.Dur += src.Dur
		p.Count += src.Count
	}
}

// Phase returns a copy of the named phase.
func (t *Timer) Phase(name string) (Phase, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.byName[name]; ok {
		return t.phases[idx], true
	}
	for _, p := range t.phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-20s %9.2f ms", p.Name, p.DurationMS)
		if p.Count > 1 {
			fmt.Fprintf(&sb, "  x%d avg %.3f ms", p.Count, p.AvgMS)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-20s %9.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Count      int     `json:"count,omitempty"`
	AvgMS      float64 `json:"avg_ms,omitempty"`
	MinMS      float64 `json:"min_ms,omitempty"`
	MaxMS      float64 `json:"max_ms,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		pr := PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Count:      phase.Count,
			Note:       phase.Note,
		}
		if phase.Count > 0 {
			pr.AvgMS = durationToMillis(phase.Dur / time.Duration(phase.Count))
			pr.MinMS = durationToMillis(phase.Min)
			pr.MaxMS = durationToMillis(phase.Max)
		}
		report.Phases[i] = pr
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
