// Package tokenbuf keeps the token sequence of one snapshot and derives
// the sequence of the next snapshot after an edit.
//
// A Buffer is immutable once built. ReScan never touches the receiver:
// it copies the unaffected prefix, relexes around the edit and copies
// the unaffected suffix shifted by the edit's length delta. The result
// is always equal to lexing the new text from scratch; when that cannot
// be shown cheaply the scan simply runs further.
package tokenbuf
