package trace

import (
	"context"
	"time"
)

type tracerKey struct{}

type spanKey struct{}

// WithTracer attaches t to ctx; nil means Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

// Span is an open interval of work. The zero Span (and a nil one) is
// inert, so callers never check whether tracing is on.
type Span struct {
	t      Tracer
	id     uint64
	parent uint64
	scope  Scope
	name   string
	start  time.Time
	attrs  []Attr
}

// Start opens a span as a child of the span carried by ctx and returns a
// context carrying the new one.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	t := FromContext(ctx)
	if !t.Level().allows(scope) {
		return &Span{}, ctx
	}
	parent, _ := ctx.Value(spanKey{}).(uint64)
	sp := &Span{
		t:      t,
		id:     spanIDs.Add(1),
		parent: parent,
		scope:  scope,
		name:   name,
		start:  time.Now(),
	}
	openSpans.Add(1)
	t.Emit(Event{Time: sp.start, Seq: nextSeq(), Kind: KindBegin, Scope: scope, Span: sp.id, Parent: parent, Name: name})
	return sp, context.WithValue(ctx, spanKey{}, sp.id)
}

// Attr records key=value on the end event.
func (s *Span) Attr(key, value string) *Span {
	if s != nil && s.t != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// End closes the span; detail usually carries an error text or "".
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.t == nil {
		return 0
	}
	elapsed := time.Since(s.start)
	openSpans.Add(-1)
	s.t.Emit(Event{
		Time:    time.Now(),
		Seq:     nextSeq(),
		Kind:    KindEnd,
		Scope:   s.scope,
		Span:    s.id,
		Parent:  s.parent,
		Name:    s.name,
		Detail:  detail,
		Elapsed: elapsed,
		Attrs:   s.attrs,
	})
	s.t = nil
	return elapsed
}

// ID is 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event.
func Point(t Tracer, scope Scope, name, detail string) {
	if t == nil || !t.Level().allows(scope) {
		return
	}
	t.Emit(Event{Time: time.Now(), Seq: nextSeq(), Kind: KindPoint, Scope: scope, Name: name, Detail: detail})
}
