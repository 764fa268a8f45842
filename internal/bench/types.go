package bench

import (
	"fmt"
	"strings"
	"time"
)

// ParserType selects how a harness reacts to edits.
type ParserType uint8

const (
	// Incremental rescans the edited range and reuses the rest.
	Incremental ParserType = iota
	// Regular relexes the whole text with a plain lexer.
	Regular
)

func (t ParserType) String() string {
	switch t {
	case Incremental:
		return "incremental"
	case Regular:
		return "regular"
	default:
		return fmt.Sprintf("ParserType(%d)", t)
	}
}

// ParseParserType accepts the names printed by String.
func ParseParserType(s string) (ParserType, error) {
	switch strings.ToLower(s) {
	case "incremental", "inc":
		return Incremental, nil
	case "regular", "reg":
		return Regular, nil
	}
	return 0, fmt.Errorf("invalid parser type: %q (expected: incremental|regular)", s)
}

// Stage is the phase a file is in.
type Stage string

const (
	StageWarmup  Stage = "warmup"
	StageParse   Stage = "parse"
	StageReparse Stage = "reparse"
	StageCompare Stage = "compare"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole run when File is empty.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	// Edit is the generator being replayed during StageReparse.
	Edit string
	// Step of Steps edit rounds are finished for this file.
	Step, Steps int
	// Mismatches found so far.
	Mismatches int
	Err        error
	Elapsed    time.Duration
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (fn SinkFunc) OnEvent(evt Event) { fn(evt) }
