package trace

import (
	"sync/atomic"
	"time"
)

// Kind of an event.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	}
	return "unknown"
}

// Attr is one key/value pair attached to an end event. Attrs keep the
// order in which they were added.
type Attr struct {
	Key   string
	Value string
}

// Event is a single trace record.
type Event struct {
	Time    time.Time
	Seq     uint64
	Kind    Kind
	Scope   Scope
	Span    uint64 // 0 for points and heartbeats
	Parent  uint64
	Name    string
	Detail  string
	Elapsed time.Duration // set on KindEnd
	Attrs   []Attr
}

var (
	seq       atomic.Uint64
	spanIDs   atomic.Uint64
	openSpans atomic.Int64
)

func nextSeq() uint64 { return seq.Add(1) }

// OpenSpans is the number of spans begun but not yet ended. A value that
// stays non-zero across heartbeats points at a stuck pass.
func OpenSpans() int64 { return openSpans.Load() }
