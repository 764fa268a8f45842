package source

import (
	"fmt"
	"math"
)

// Span is a half-open byte range [Start, End) inside one snapshot.
type Span struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

// InvalidSpan marks "no range". It is never produced by a lexer.
var InvalidSpan = Span{Start: math.MaxUint32, End: math.MaxUint32}

// NewSpan builds a span from int offsets, panicking on overflow.
func NewSpan(start, end int) Span {
	return Span{Start: offset(start), End: offset(end)}
}

func (s Span) IsValid() bool {
	return s != InvalidSpan && s.Start <= s.End
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	if s == InvalidSpan {
		return "<invalid>"
	}
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Contains reports whether off lies inside the span.
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off < s.End
}

// Covers reports whether other lies entirely inside s.
func (s Span) Covers(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

func (s Span) Cover(other Span) Span {
	if !s.IsValid() {
		return other
	}
	if !other.IsValid() {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Shift moves the span by delta bytes. Spans never go below zero:
// a shift that would underflow returns the span unchanged.
func (s Span) Shift(delta int) Span {
	switch {
	case delta > 0:
		return s.ShiftRight(offset(delta))
	case delta < 0:
		return s.ShiftLeft(offset(-delta))
	}
	return s
}

func (s Span) ShiftLeft(n uint32) Span {
	if n > s.Start {
		return s
	}
	return Span{Start: s.Start - n, End: s.End - n}
}

func (s Span) ShiftRight(n uint32) Span {
	return Span{Start: s.Start + n, End: s.End + n}
}

// BufferRange pins a span to the snapshot it refers to.
type BufferRange struct {
	File *File
	Span Span
}

// Whole returns a range covering the entire file.
func Whole(f *File) BufferRange {
	return BufferRange{File: f, Span: Span{Start: 0, End: f.Len()}}
}

func (r BufferRange) Text() string {
	if r.File == nil || !r.Span.IsValid() {
		return ""
	}
	return string(r.File.Content[r.Span.Start:r.Span.End])
}
