package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

type buffer struct{ bytes.Buffer }

func (*buffer) Close() error { return nil }

func TestStartNestsUnderContextSpan(t *testing.T) {
	ring := NewRing(16, LevelDetail, nil, FormatText)
	ctx := WithTracer(context.Background(), ring)

	outer, ctx := Start(ctx, ScopePass, "parse")
	inner, _ := Start(ctx, ScopeFile, "file")
	inner.Attr("tokens", "12").End("")
	outer.End("done")

	events := ring.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[1].Parent != outer.ID() {
		t.Fatalf("inner span parent = %d, want %d", events[1].Parent, outer.ID())
	}
	if len(events[2].Attrs) != 1 || events[2].Attrs[0] != (Attr{Key: "tokens", Value: "12"}) {
		t.Fatalf("missing attr on end event: %v", events[2].Attrs)
	}
	if events[3].Kind != KindEnd || events[3].Detail != "done" {
		t.Fatalf("unexpected last event: %+v", events[3])
	}
	if OpenSpans() != 0 {
		t.Fatalf("open spans = %d after both ended", OpenSpans())
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	ring := NewRing(16, LevelPhase, nil, FormatText)
	ctx := WithTracer(context.Background(), ring)

	fine, _ := Start(ctx, ScopeFile, "too fine")
	if fine.ID() != 0 {
		t.Fatal("file scope must be inert at phase level")
	}
	fine.End("")
	Point(ring, ScopeStep, "step", "")
	sp, _ := Start(ctx, ScopePass, "lex")
	sp.End("")
	if n := len(ring.Events()); n != 2 {
		t.Fatalf("expected only the pass span, got %d events", n)
	}

	if Nop.Level() != LevelOff {
		t.Fatal("Nop must be off")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context must yield Nop")
	}
	if sp, c := Start(context.Background(), ScopeDriver, "x"); sp.End("") != 0 || c == nil {
		t.Fatal("span without tracer must be inert")
	}
}

func TestRingWrapsAndDumpsOnClose(t *testing.T) {
	out := &buffer{}
	ring := NewRing(2, LevelDebug, out, FormatText)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeStep, name, "")
	}
	events := ring.Events()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected ring contents: %+v", events)
	}
	if out.Len() != 0 {
		t.Fatal("ring must not write before Close")
	}
	if err := ring.Close(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out.String(), "\n"); got != 2 {
		t.Fatalf("expected 2 dumped lines, got %q", out.String())
	}
}

func TestStreamFormats(t *testing.T) {
	out := &buffer{}
	tr, err := New(Config{Level: LevelDebug, Mode: ModeStream, Format: FormatNDJSON, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	Point(tr, ScopeFile, "rescan.fallback", "anchor")
	if !strings.Contains(out.String(), `"name":"rescan.fallback"`) {
		t.Fatalf("unexpected ndjson: %s", out.String())
	}

	out.Reset()
	tr, err = New(Config{Level: LevelDebug, Mode: ModeStream, Output: out})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	sp, _ := Start(ctx, ScopePass, "rescan")
	sp.Attr("b", "2").Attr("a", "1").End("ok")
	if !strings.Contains(out.String(), "rescan (ok) b=2 a=1 ") {
		t.Fatalf("unexpected text output: %q", out.String())
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatal("heartbeat on a disabled tracer")
	}
	ring := NewRing(64, LevelPhase, nil, FormatText)
	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Events()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	events := ring.Events()
	if len(events) == 0 || events[0].Kind != KindHeartbeat {
		t.Fatalf("no heartbeat recorded: %+v", events)
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if formatForPath("out.ndjson") != FormatNDJSON || formatForPath("-") != FormatText {
		t.Fatal("format detection by extension")
	}
}
