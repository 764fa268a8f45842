package tokenbuf

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/trace"
)

// Apply rescans b after edit. The edit must have been made against b's
// snapshot.
func (b *Buffer) Apply(ctx context.Context, edit source.Edit, f lexer.Factory, opts Options) (*Buffer, error) {
	if edit.IsZero() || edit.Old != b.file {
		return nil, ErrStaleEdit
	}
	return b.ReScan(ctx, edit.Range, f, source.BufferRange{File: edit.New, Span: edit.Inserted()}, opts)
}

// ReScan derives the token buffer of newRange.File, where oldRange of
// b's text was replaced by the text at newRange.Span. When
// newRange.Span is invalid it is derived from the length delta.
//
// The receiver is never modified. On cancellation ReScan returns the
// context error and no buffer.
func (b *Buffer) ReScan(ctx context.Context, oldRange source.Span, f lexer.Factory, newRange source.BufferRange, opts Options) (*Buffer, error) {
	if newRange.File == nil {
		return nil, fmt.Errorf("%w: no new snapshot", ErrRangeMismatch)
	}
	oldLen := b.file.Len()
	newLen := newRange.File.Len()
	if !oldRange.IsValid() || oldRange.End > oldLen {
		return nil, fmt.Errorf("%w: %s in %d bytes", ErrRangeOutOfBounds, oldRange, oldLen)
	}
	delta := int(newLen) - int(oldLen)
	newEnd := int(oldRange.End) + delta
	if newEnd < int(oldRange.Start) {
		return nil, fmt.Errorf("%w: %s cannot shrink by %d", ErrRangeMismatch, oldRange, -delta)
	}
	if newRange.Span.IsValid() {
		if newRange.Span.Start != oldRange.Start || int(newRange.Span.End) != newEnd {
			return nil, fmt.Errorf("%w: old %s, new %s, delta %+d", ErrRangeMismatch, oldRange, newRange.Span, delta)
		}
	}
	opts = opts.normalized()

	span, ctx := trace.Start(ctx, trace.ScopePass, "rescan")
	m := &merger{
		check:    NewInterruptChecker(ctx),
		old:      b.tokens,
		oldLen:   oldLen,
		newLen:   newLen,
		editEnd:  oldRange.End,
		editFrom: oldRange.Start,
		delta:    delta,
		trimming: true,
	}

	lx := f.New(newRange.File)
	mode := "plain"
	if rl, ok := lx.(lexer.Resumable); ok {
		mode = "resume"
		anchor := b.FindTokenAt(runeFloor(oldRange.Start))
		if anchor < 0 {
			anchor = len(b.tokens) - 1
		}
		resume := anchor - opts.LookbackMargin
		if resume <= 0 || !b.tokens[resume-1].State.Usable() {
			trace.Point(trace.FromContext(ctx), trace.ScopePass, "rescan.fallback", "no usable checkpoint before the edit")
			out, err := Lex(ctx, lx)
			if err != nil {
				span.End(err.Error())
				return nil, err
			}
			span.Attr("mode", "full").Attr("relexed", strconv.Itoa(out.Len())).End("")
			return out, nil
		}
		prev := b.tokens[resume-1]
		m.out = make([]token.Token, resume, len(b.tokens)+8)
		copy(m.out, b.tokens[:resume])
		m.affectedStart = prev.Span.End
		m.stateful = true
		m.needRun = 1
		rl.Resume(prev.Span.End, newLen, prev.State)
	} else {
		lx.Reset()
		m.out = make([]token.Token, 0, len(b.tokens)+8)
		m.needRun = opts.SyncRun
	}
	m.syncPos = b.FindTokenAt(oldRange.End)
	if m.syncPos < 0 {
		m.syncPos = len(b.tokens)
	}

	if err := m.run(lx); err != nil {
		span.End(err.Error())
		return nil, err
	}
	span.Attr("mode", mode).
		Attr("relexed", strconv.Itoa(m.relexed)).
		Attr("reused", strconv.Itoa(len(m.out)-m.relexed)).
		Attr("affected", m.affected.String()).
		End("")
	return &Buffer{file: newRange.File, tokens: m.out, affected: m.affected}, nil
}

// merger splices freshly lexed tokens with the old suffix.
type merger struct {
	check InterruptChecker

	old      []token.Token
	out      []token.Token
	oldLen   uint32
	newLen   uint32
	editFrom uint32
	editEnd  uint32
	delta    int

	stateful bool
	needRun  int
	syncPos  int
	runStart int
	runLen   int

	trimming      bool
	affectedStart uint32
	affected      source.Span
	relexed       int
}

func (m *merger) run(lx lexer.Lexer) error {
	for {
		if err := m.check.Check(); err != nil {
			return err
		}
		tok := lx.Next()
		if tok.Kind == token.EOF {
			m.affected = source.Span{Start: m.affectedStart, End: m.newLen}
			return nil
		}
		idx := len(m.out)
		m.out = append(m.out, tok)
		m.relexed++

		if m.trimming {
			// tokens before the edit that match the old ones stay out of affected
			if idx < len(m.old) && m.old[idx] == tok && tok.Span.End < m.editFrom {
				m.affectedStart = tok.Span.End
				continue
			}
			m.trimming = false
		}
		if m.trySync(tok) {
			return nil
		}
	}
}

// trySync matches tok against the old token at the same distance from
// the end of the text. Once the required run is reached it appends the
// old suffix and reports true.
func (m *merger) trySync(tok token.Token) bool {
	newDist := m.newLen - tok.Span.Start
	for m.syncPos < len(m.old) && m.oldLen-m.old[m.syncPos].Span.Start > newDist {
		m.syncPos++
		m.runLen = 0
	}
	if m.syncPos >= len(m.old) {
		return false
	}
	cand := m.old[m.syncPos]
	if m.oldLen-cand.Span.Start != newDist ||
		cand.Span.Start <= m.editEnd ||
		!cand.SameShape(tok) ||
		(m.stateful && cand.State != tok.State) {
		m.runLen = 0
		return false
	}
	if m.runLen == 0 {
		m.runStart = m.syncPos
	}
	m.runLen++
	if m.runLen < m.needRun {
		m.syncPos++
		return false
	}

	for _, rest := range m.old[m.syncPos+1:] {
		m.out = append(m.out, rest.Shift(m.delta))
	}
	m.affected = source.NewSpan(int(m.affectedStart), int(m.old[m.runStart].Span.Start)+m.delta)
	return true
}

// runeFloor steps back far enough that a rune decoded before off
// cannot reach into the edit even when the old text is not valid UTF-8.
func runeFloor(off uint32) uint32 {
	if off < utf8.UTFMax-1 {
		return 0
	}
	return off - (utf8.UTFMax - 1)
}
