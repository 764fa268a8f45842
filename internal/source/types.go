package source

import (
	"fmt"

	"fortio.org/safecast"
)

type (
	// FileID uniquely identifies one snapshot within a FileSet.
	FileID uint32 // просто ID снапшота
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, editor buffer).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
	// FileEdited marks a snapshot derived from another one by an edit.
	FileEdited
)

// File is an immutable text snapshot. An edit never changes a File,
// it produces a new one with a higher Version.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
	Version uint32
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

// Len returns the content length in bytes.
func (f *File) Len() uint32 {
	return offset(len(f.Content))
}

// Slice returns the text covered by span.
func (f *File) Slice(span Span) string {
	if !span.IsValid() || span.End > f.Len() {
		return ""
	}
	return string(f.Content[span.Start:span.End])
}

// Position converts a byte offset into a line/column pair.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// LineStart returns the offset of the first byte of a 1-based line.
func (f *File) LineStart(line uint32) (uint32, bool) {
	switch {
	case line == 0:
		return 0, false
	case line == 1:
		return 0, true
	case int(line-2) < len(f.LineIdx):
		return f.LineIdx[line-2] + 1, true
	}
	return 0, false
}

// LineCount returns the number of lines; an empty file has one line.
func (f *File) LineCount() uint32 {
	return offset(len(f.LineIdx)) + 1
}

func offset(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
