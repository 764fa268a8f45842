package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Tracer receives events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev Event)
	Level() Level
	// Close writes out anything buffered and releases the output.
	Close() error
}

type nop struct{}

func (nop) Emit(Event) {}

func (nop) Level() Level { return LevelOff }

func (nop) Close() error { return nil }

// Nop drops everything.
var Nop Tracer = nop{}

// StorageMode selects where events go.
type StorageMode uint8

const (
	// ModeStream writes each event as it happens.
	ModeStream StorageMode = iota + 1
	// ModeRing keeps the last RingSize events and writes them on Close.
	ModeRing
	// ModeBoth streams and also keeps the ring.
	ModeBoth
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	}
	return "unknown"
}

func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	}
	return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config describes a tracer.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // wins over OutputPath
	OutputPath string    // "" or "-" is stderr
	RingSize   int       // default 4096
	Heartbeat  time.Duration
}

// New builds the tracer described by cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Format == FormatAuto {
		cfg.Format = formatForPath(cfg.OutputPath)
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeStream:
		return newStream(w, cfg.Level, cfg.Format), nil
	case ModeRing:
		return NewRing(cfg.RingSize, cfg.Level, w, cfg.Format), nil
	case ModeBoth:
		// кольцо пишет в тот же поток только при Close, дублей нет
		return tee{newStream(w, cfg.Level, cfg.Format), NewRing(cfg.RingSize, cfg.Level, nil, cfg.Format)}, nil
	}
	return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
}

func openOutput(cfg Config) (io.WriteCloser, error) {
	if cfg.Output != nil {
		if wc, ok := cfg.Output.(io.WriteCloser); ok {
			return wc, nil
		}
		return nopCloser{cfg.Output}, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// stream writes every accepted event immediately.
type stream struct {
	mu     sync.Mutex
	w      io.WriteCloser
	level  Level
	format Format
}

func newStream(w io.WriteCloser, level Level, format Format) *stream {
	return &stream{w: w, level: level, format: format}
}

func (t *stream) Emit(ev Event) {
	if !accepts(t.level, ev) {
		return
	}
	data := ev.Encode(t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	// ошибки записи трейса не ломают разбор
	_, _ = t.w.Write(data) //nolint:errcheck
}

func (t *stream) Level() Level { return t.level }

func (t *stream) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Close()
}

type tee []Tracer

func (t tee) Emit(ev Event) {
	for _, tr := range t {
		tr.Emit(ev)
	}
}

func (t tee) Level() Level { return t[0].Level() }

func (t tee) Close() error {
	var first error
	for _, tr := range t {
		if err := tr.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func accepts(l Level, ev Event) bool {
	return ev.Kind == KindHeartbeat && l > LevelOff || l.allows(ev.Scope)
}
