package trace

import (
	"io"
	"sync"
)

// Ring keeps the most recent events in memory. If it has a writer, Close
// dumps the retained events there, so a cancelled or stuck run still
// leaves its last steps behind.
type Ring struct {
	mu     sync.Mutex
	buf    []Event
	next   int
	full   bool
	level  Level
	w      io.WriteCloser
	format Format
}

// NewRing returns a ring holding up to size events (4096 if size <= 0).
// w may be nil.
func NewRing(size int, level Level, w io.WriteCloser, format Format) *Ring {
	if size <= 0 {
		size = 4096
	}
	return &Ring{buf: make([]Event, size), level: level, w: w, format: format}
}

func (r *Ring) Emit(ev Event) {
	if !accepts(r.level, ev) {
		return
	}
	r.mu.Lock()
	r.buf[r.next] = ev
	r.next++
	if r.next == len(r.buf) {
		r.next, r.full = 0, true
	}
	r.mu.Unlock()
}

func (r *Ring) Level() Level { return r.level }

// Events returns the retained events, oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Dump writes the retained events to w.
func (r *Ring) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Events() {
		if _, err := w.Write(ev.Encode(format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) Close() error {
	if r.w == nil {
		return nil
	}
	err := r.Dump(r.w, r.format)
	if cerr := r.w.Close(); err == nil {
		err = cerr
	}
	return err
}
