package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spring/internal/bench"
	"spring/internal/observ"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan bench.Event)
	m := NewProgressModel("bench", []string{"a.pas", "b.pas"}, events).(*benchProgress)

	m.apply(bench.Event{File: "a.pas", Stage: bench.StageReparse, Status: bench.StatusWorking, Edit: "swap-lexemes", Step: 5, Steps: 10})
	m.apply(bench.Event{File: "b.pas", Stage: bench.StageCompare, Status: bench.StatusDone, Step: 10, Steps: 10, Mismatches: 2, Elapsed: 3 * time.Millisecond})
	m.apply(bench.Event{File: "unknown.pas", Status: bench.StatusError})

	label, _ := m.rows[0].status()
	assert.Equal(t, "swap-lexemes 5/10", label)
	label, _ = m.rows[1].status()
	assert.Equal(t, "done", label)
	assert.InDelta(t, (0.55+1.0)/2, m.percent(), 1e-9)

	view := m.View()
	assert.Contains(t, view, "swap-lexemes 5/10")
	assert.Contains(t, view, "a.pas")
	assert.Contains(t, view, "2 mismatch(es)")
	assert.Contains(t, view, "3ms")
}

func TestProgressModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan bench.Event)
	close(events)
	m := NewProgressModel("bench", []string{"a.pas"}, events).(*benchProgress)
	msg := m.next()()
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "done: bench")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "日", truncate("日本語", 2))
}

func TestBenchTablePlain(t *testing.T) {
	inc, reg := observ.NewTimer(), observ.NewTimer()
	inc.Record("parse", 2*time.Millisecond)
	reg.Record("parse", 2*time.Millisecond)
	inc.Record(bench.PhaseName("substitute-char"), time.Millisecond)
	reg.Record(bench.PhaseName("substitute-char"), 4*time.Millisecond)

	rep := &bench.Report{
		Files: []bench.FileResult{{Path: "a.pas", Mismatches: []bench.Mismatch{{Edit: "swap-lexemes", Round: 2, Diff: "line 3"}}}},
		Totals: map[bench.ParserType]*observ.Timer{
			bench.Incremental: inc,
			bench.Regular:     reg,
		},
	}
	out := BenchTable(rep, []bench.ParserType{bench.Incremental, bench.Regular}, false)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "incremental ms")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "parse"))
	assert.Contains(t, lines[1], "1.00x")
	assert.Contains(t, lines[2], "reparse/substitute-char")
	assert.Contains(t, lines[2], "4.00x")
	assert.Contains(t, out, "1 edit(s) produced different trees")
	assert.Contains(t, out, "a.pas swap-lexemes#2: line 3")
}
