package diagfmt

import (
	"fmt"
	"strings"

	"spring/internal/diag"
	"spring/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview returns the whole lines touched by edit before
// and after applying it.
func buildFixEditPreview(f *source.File, edit diag.FixEdit) (fixEditPreview, error) {
	if f == nil {
		return fixEditPreview{}, fmt.Errorf("nil file")
	}
	if !edit.Span.IsValid() || edit.Span.End > f.Len() {
		return fixEditPreview{}, fmt.Errorf("edit span %s out of range", edit.Span)
	}
	startLine := f.Position(edit.Span.Start).Line
	endLine := max(f.Position(edit.Span.End).Line, startLine)

	blockStart := lineStartOffset(f, startLine)
	blockEnd := min(max(lineEndOffsetInclusive(f, endLine), blockStart), f.Len())

	original := f.Content[blockStart:blockEnd]
	relStart := int(edit.Span.Start - blockStart)
	relEnd := int(edit.Span.End - blockStart)

	after := make([]byte, 0, len(original)+len(edit.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, edit.NewText...)
	after = append(after, original[relEnd:]...)

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// хвостовой '\n' не даёт пустой строки
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if off, ok := f.LineStart(line); ok {
		return off
	}
	return f.Len()
}

func lineEndOffsetInclusive(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return f.Len()
}
