package lexer

import (
	"spring/internal/source"
	"spring/internal/token"
)

// plain hides resumability: its tokens carry StateUnusable and it
// does not implement Resumable, so consumers can only restart it at 0.
type plain struct {
	inner Lexer
}

// Plain wraps a lexer so that only the plain contract is visible.
func Plain(l Lexer) Lexer {
	if p, ok := l.(*plain); ok {
		return p
	}
	return &plain{inner: l}
}

func (p *plain) File() *source.File { return p.inner.File() }

func (p *plain) Reset() { p.inner.Reset() }

func (p *plain) Next() token.Token {
	tok := p.inner.Next()
	tok.State = token.StateUnusable
	return tok
}

// Factory creates a lexer for a snapshot.
type Factory interface {
	New(f *source.File) Lexer
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(f *source.File) Lexer

func (fn FactoryFunc) New(f *source.File) Lexer { return fn(f) }

// ResumableFactory builds Scanners.
func ResumableFactory() Factory {
	return FactoryFunc(func(f *source.File) Lexer { return New(f) })
}

// PlainFactory builds Scanners hidden behind Plain.
func PlainFactory() Factory {
	return FactoryFunc(func(f *source.File) Lexer { return Plain(New(f)) })
}

// IsResumable reports whether l supports Resume.
func IsResumable(l Lexer) bool {
	_, ok := l.(Resumable)
	return ok
}
