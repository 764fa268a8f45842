package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the level names case-insensitively; "" means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(s)
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// Scope is the granularity of an event; smaller is coarser.
type Scope uint8

const (
	// ScopeDriver: whole commands, bench runs, LSP sessions.
	ScopeDriver Scope = iota + 1
	// ScopePass: lex, rescan and parse passes.
	ScopePass
	// ScopeFile: per-file work, cache hits, watcher reloads.
	ScopeFile
	// ScopeStep: individual merge steps.
	ScopeStep
)

var scopeNames = [...]string{"", "driver", "pass", "file", "step"}

func (s Scope) String() string {
	if s > 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// allows reports whether events of scope pass the level filter.
// LevelError lets through only points emitted at ScopeDriver.
func (l Level) allows(s Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return s == ScopeDriver
	case LevelPhase:
		return s <= ScopePass
	case LevelDetail:
		return s <= ScopeFile
	}
	return true
}
