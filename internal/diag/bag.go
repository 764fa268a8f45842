package diag

import (
	"cmp"
	"slices"

	"fortio.org/safecast"
)

// Bag holds the diagnostics of one file up to a hard limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag returns a bag that keeps at most max diagnostics; values that do
// not fit uint16 mean "as many as possible".
func NewBag(max int) *Bag {
	limit, err := safecast.Conv[uint16](max)
	if err != nil {
		limit = ^uint16(0)
	}
	return &Bag{items: make([]Diagnostic, 0, min(max, 64)), max: limit}
}

// Add reports false when the limit is reached and d was dropped.
func (b *Bag) Add(d Diagnostic) bool {
	if b.Full() {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Append adds d even past the limit; summaries must not be dropped.
func (b *Bag) Append(d Diagnostic) {
	b.items = append(b.items, d)
}

func (b *Bag) Full() bool { return len(b.items) >= int(b.max) }

func (b *Bag) Len() int { return len(b.items) }

// Items aliases the bag's storage; do not modify.
func (b *Bag) Items() []Diagnostic { return b.items }

func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

// Sort orders by primary span, then worst severity first, then code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}
