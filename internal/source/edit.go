package source

import (
	"crypto/sha256"
	"fmt"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Edit describes one change: Range (in Old coordinates) was replaced,
// producing New.
type Edit struct {
	Old   *File
	Range Span
	New   *File
}

// IsZero reports whether the edit carries no change.
func (e Edit) IsZero() bool {
	return e.Old == nil || e.New == nil
}

// Delta is New length minus Old length.
func (e Edit) Delta() int {
	if e.IsZero() {
		return 0
	}
	return len(e.New.Content) - len(e.Old.Content)
}

// Inserted returns the span of the replacement text in New coordinates.
func (e Edit) Inserted() Span {
	if e.IsZero() {
		return InvalidSpan
	}
	end := int(e.Range.End) + e.Delta()
	return Span{Start: e.Range.Start, End: offset(end)}
}

func (e Edit) String() string {
	if e.IsZero() {
		return "<no edit>"
	}
	return fmt.Sprintf("%s -> %s (delta %+d)", e.Range, e.Inserted(), e.Delta())
}

// Apply builds the snapshot produced by replacing old with text in f.
// The result is detached from any FileSet.
func Apply(f *File, old Span, text []byte) (*File, Edit, error) {
	content, err := splice(f.Content, old, text)
	if err != nil {
		return nil, Edit{}, err
	}
	next := NewFile(f.Path, content)
	next.Flags = f.Flags | FileEdited
	next.Version = f.Version + 1
	return next, Edit{Old: f, Range: old, New: next}, nil
}

// NewFile builds a standalone snapshot outside of any FileSet.
func NewFile(path string, content []byte) *File {
	return &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   FileVirtual,
	}
}

// DiffEdit derives the smallest single edit turning old into next.
// Both snapshots must be present; identical contents yield an edit with
// an empty range at the end of old. The range never splits a UTF-8
// sequence.
func DiffEdit(old, next *File) Edit {
	var prefix, suffix int
	if utf8.Valid(old.Content) && utf8.Valid(next.Content) {
		prefix, suffix = diffRunes(old.Content, next.Content)
	} else {
		prefix, suffix = diffBytes(old.Content, next.Content)
	}
	return Edit{
		Old:   old,
		Range: NewSpan(prefix, len(old.Content)-suffix),
		New:   next,
	}
}

// diffRunes asks diffmatchpatch for the common head and tail. It works on
// runes, so it is only used on valid UTF-8 where rune text lengths are
// byte lengths.
func diffRunes(a, b []byte) (prefix, suffix int) {
	diffs := diffmatchpatch.New().DiffMain(string(a), string(b), false)
	if n := len(diffs); n > 0 {
		if diffs[0].Type == diffmatchpatch.DiffEqual {
			prefix = len(diffs[0].Text)
		}
		if n > 1 && diffs[n-1].Type == diffmatchpatch.DiffEqual {
			suffix = len(diffs[n-1].Text)
		}
	}
	if prefix == len(a) && prefix == len(b) {
		suffix = 0
	}
	return prefix, suffix
}

// diffBytes compares raw bytes, then widens the changed region so that
// it starts and ends on rune starts in both texts.
func diffBytes(a, b []byte) (prefix, suffix int) {
	n := min(len(a), len(b))
	for prefix < n && a[prefix] == b[prefix] {
		prefix++
	}
	for suffix < n-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	inside := func(c []byte, i int) bool { return i < len(c) && !utf8.RuneStart(c[i]) }
	for prefix > 0 && (inside(a, prefix) || inside(b, prefix)) {
		prefix--
	}
	for suffix > 0 && inside(a, len(a)-suffix) {
		suffix--
	}
	return prefix, suffix
}

func splice(content []byte, old Span, text []byte) ([]byte, error) {
	if !old.IsValid() || int(old.End) > len(content) {
		return nil, fmt.Errorf("edit range %s outside of %d bytes", old, len(content))
	}
	out := make([]byte, 0, len(content)-int(old.Len())+len(text))
	out = append(out, content[:old.Start]...)
	out = append(out, text...)
	out = append(out, content[old.End:]...)
	return out, nil
}
