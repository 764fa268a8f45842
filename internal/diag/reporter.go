package diag

import "spring/internal/source"

// Reporter receives diagnostics as the parser produces them. The tree
// keeps its own copy; a Reporter is for callers that stream or count.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// BagReporter collects into a Bag; diagnostics past the bag limit are
// dropped.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// MultiReporter forwards to every non-nil reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

// Dedup forwards the first of each (code, severity, span, message) to
// next. Recovery at EOF can report the same missing token repeatedly.
func Dedup(next Reporter) Reporter {
	seen := make(map[dedupKey]struct{})
	return ReporterFunc(func(d Diagnostic) {
		key := dedupKey{code: d.Code, sev: d.Severity, span: d.Primary, msg: d.Message}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		if next != nil {
			next.Report(d)
		}
	})
}
