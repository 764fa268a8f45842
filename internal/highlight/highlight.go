// Package highlight classifies tokens for editors and terminals.
package highlight

import (
	"unicode/utf16"
	"unicode/utf8"

	"spring/internal/source"
	"spring/internal/token"
)

// Class is a highlighting category.
type Class uint8

const (
	None Class = iota
	Keyword
	Comment
	String
	Number
	Operator
	Identifier
	Invalid
)

var classNames = [...]string{
	None:       "none",
	Keyword:    "keyword",
	Comment:    "comment",
	String:     "string",
	Number:     "number",
	Operator:   "operator",
	Identifier: "identifier",
	Invalid:    "invalid",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "none"
}

// Classify maps a token kind to its class using only the kind.
func Classify(k token.Kind) Class {
	switch {
	case token.IsKeyword(k):
		return Keyword
	case token.IsComment(k):
		return Comment
	case token.IsError(k):
		return Invalid
	case token.IsString(k):
		return String
	case token.IsNumber(k):
		return Number
	case token.IsOperator(k):
		return Operator
	case k == token.Ident:
		return Identifier
	default:
		return None
	}
}

// Range is a classified piece of text.
type Range struct {
	Span  source.Span
	Class Class
}

// Ranges classifies toks and merges neighbours of the same class that
// touch. Whitespace and EOF are left out.
func Ranges(toks []token.Token) []Range {
	out := make([]Range, 0, len(toks))
	for _, tok := range toks {
		c := Classify(tok.Kind)
		if c == None || tok.Span.Empty() {
			continue
		}
		// a multi-line comment arrives line by line; join it
		if n := len(out); n > 0 && out[n-1].Class == c && c == Comment && out[n-1].Span.End == tok.Span.Start {
			out[n-1].Span.End = tok.Span.End
			continue
		}
		out = append(out, Range{Span: tok.Span, Class: c})
	}
	return out
}

// Legend is the semantic token type list, indexed by SemanticType.
var Legend = []string{"keyword", "comment", "string", "number", "operator", "variable"}

// SemanticType returns the Legend index for c, or -1 when c has none.
func SemanticType(c Class) int {
	switch c {
	case Keyword:
		return 0
	case Comment:
		return 1
	case String, Invalid:
		return 2
	case Number:
		return 3
	case Operator:
		return 4
	case Identifier:
		return 5
	default:
		return -1
	}
}

// SemanticTokens encodes toks in the LSP relative format: five integers
// per token (delta line, delta start, length, type, modifiers) with
// UTF-16 columns. Tokens spanning several lines are split at line ends.
func SemanticTokens(f *source.File, toks []token.Token) []uint32 {
	enc := encoder{file: f, data: make([]uint32, 0, len(toks)*5)}
	for _, tok := range toks {
		typ := SemanticType(Classify(tok.Kind))
		if typ < 0 || tok.Span.Empty() {
			continue
		}
		enc.add(tok.Span, uint32(typ))
	}
	return enc.data
}

type encoder struct {
	file     *source.File
	data     []uint32
	prevLine uint32
	prevCol  uint32
}

func (e *encoder) add(span source.Span, typ uint32) {
	content := e.file.Content
	start := span.Start
	for start < span.End {
		end := start
		for end < span.End && content[end] != '\n' {
			end++
		}
		if end > start {
			e.emit(start, end, typ)
		}
		start = end + 1
	}
}

func (e *encoder) emit(start, end uint32, typ uint32) {
	pos := e.file.Position(start)
	line := pos.Line - 1
	lineStart, _ := e.file.LineStart(pos.Line)
	col := UTF16Len(e.file.Content[lineStart:start])
	length := UTF16Len(e.file.Content[start:end])

	deltaLine := line - e.prevLine
	deltaCol := col
	if deltaLine == 0 {
		deltaCol = col - e.prevCol
	}
	e.data = append(e.data, deltaLine, deltaCol, length, typ, 0)
	e.prevLine, e.prevCol = line, col
}

// UTF16Len counts UTF-16 code units in b. Invalid bytes count as one
// replacement character each.
func UTF16Len(b []byte) uint32 {
	var n uint32
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if w := utf16.RuneLen(r); w > 0 {
			n += uint32(w)
		} else {
			n++
		}
		b = b[size:]
	}
	return n
}
