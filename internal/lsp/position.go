package lsp

import (
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"spring/internal/source"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// offsetForPosition converts an LSP position (UTF-16 columns) into a
// byte offset of file. Positions past the end of a line clamp to it.
func offsetForPosition(file *source.File, pos protocol.Position) uint32 {
	content := file.Content
	lineCount := safeUint32(len(file.LineIdx) + 1)
	if pos.Line >= lineCount {
		return file.Len()
	}
	var lineStart uint32
	if pos.Line > 0 {
		lineStart = file.LineIdx[pos.Line-1] + 1
	}
	lineEnd := file.Len()
	if int(pos.Line) < len(file.LineIdx) {
		lineEnd = file.LineIdx[pos.Line]
	}
	var units uint32
	off := lineStart
	for off < lineEnd && units < pos.Character {
		r, size := utf8.DecodeRune(content[off:lineEnd])
		need := uint32(1)
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		off += safeUint32(size)
	}
	return off
}

func positionForOffset(file *source.File, off uint32) protocol.Position {
	if off > file.Len() {
		off = file.Len()
	}
	lineIdx := file.LineIdx
	line := sort.Search(len(lineIdx), func(i int) bool { return lineIdx[i] >= off })
	var lineStart uint32
	if line > 0 {
		lineStart = lineIdx[line-1] + 1
	}
	var units uint32
	for p := lineStart; p < off; {
		r, size := utf8.DecodeRune(file.Content[p:off])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		p += safeUint32(size)
	}
	return protocol.Position{Line: safeUint32(line), Character: units}
}

func rangeForSpan(file *source.File, span source.Span) protocol.Range {
	return protocol.Range{
		Start: positionForOffset(file, span.Start),
		End:   positionForOffset(file, span.End),
	}
}

func spanForRange(file *source.File, r protocol.Range) source.Span {
	start := offsetForPosition(file, r.Start)
	end := offsetForPosition(file, r.End)
	if end < start {
		end = start
	}
	return source.Span{Start: start, End: end}
}
