package tokenbuf

import "errors"

var (
	// ErrRangeOutOfBounds reports an edit range that does not fit the old text.
	ErrRangeOutOfBounds = errors.New("tokenbuf: edit range out of bounds")
	// ErrRangeMismatch reports a new range inconsistent with the old one.
	ErrRangeMismatch = errors.New("tokenbuf: new range does not match the edit")
	// ErrStaleEdit reports an edit made against a different snapshot.
	ErrStaleEdit = errors.New("tokenbuf: edit is not based on this buffer")
	// ErrCoverage reports a token sequence that does not tile its text.
	ErrCoverage = errors.New("tokenbuf: tokens do not cover the text")
	// ErrSnapshotMismatch reports a cached snapshot that belongs to other text.
	ErrSnapshotMismatch = errors.New("tokenbuf: snapshot does not match the file")
)
