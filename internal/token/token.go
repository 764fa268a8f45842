package token

import (
	"fmt"
	"math"

	"spring/internal/source"
)

// State is the lexer mode captured after a token. It is opaque to
// everyone but the lexer that produced it.
type State uint32

const (
	// StateDefault is the mode of a freshly started lexer.
	StateDefault State = 0
	// StateUnusable marks tokens that carry no resumable checkpoint.
	StateUnusable State = math.MaxUint32
)

// Usable reports whether a lexer can be resumed from this state.
func (s State) Usable() bool { return s != StateUnusable }

// Token represents a single source token: kind, location and the
// lexer state after it.
type Token struct {
	Kind  Kind
	Span  source.Span
	State State
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%s", t.Kind, t.Span)
}

// Len returns the token length in bytes.
func (t Token) Len() uint32 { return t.Span.Len() }

// Shift returns the token moved by delta bytes.
func (t Token) Shift(delta int) Token {
	t.Span = t.Span.Shift(delta)
	return t
}

// SameShape reports whether two tokens agree on kind and length.
func (t Token) SameShape(other Token) bool {
	return t.Kind == other.Kind && t.Span.Len() == other.Span.Len()
}

// IsTrivia reports whether the token is invisible to the grammar.
func (t Token) IsTrivia() bool { return IsTrivia(t.Kind) }

// IsLiteral reports whether the token is a number or string literal.
func (t Token) IsLiteral() bool {
	return IsNumber(t.Kind) || IsString(t.Kind)
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool { return IsKeyword(t.Kind) }

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
