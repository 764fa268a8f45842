// Package lang maps file extensions to languages, i.e. to the lexer
// factory that tokenizes them.
package lang

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"spring/internal/lexer"
)

// ErrUnknownExtension is returned for paths no language claims.
var ErrUnknownExtension = errors.New("lang: unknown file extension")

// Language describes one registered file type.
type Language struct {
	Name       string
	Extensions []string // with the leading dot, lower case
	Lexers     lexer.Factory
}

// Spring is the built-in Pascal-like language.
var Spring = Language{
	Name:       "Spring",
	Extensions: []string{".pas"},
	Lexers:     lexer.ResumableFactory(),
}

// Registry resolves extensions. The zero value is empty and usable.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]*Language
	langs []*Language
}

// NewRegistry returns a registry holding Spring.
func NewRegistry() *Registry {
	r := &Registry{}
	if err := r.Register(Spring); err != nil {
		panic(err)
	}
	return r
}

// Register adds l. An extension already owned by another language is an error.
func (r *Registry) Register(l Language) error {
	if l.Name == "" || l.Lexers == nil {
		return fmt.Errorf("lang: incomplete language %q", l.Name)
	}
	exts := make([]string, 0, len(l.Extensions))
	for _, ext := range l.Extensions {
		ext = normalizeExt(ext)
		if ext == "" {
			return fmt.Errorf("lang: %s: empty extension", l.Name)
		}
		exts = append(exts, ext)
	}
	l.Extensions = exts

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byExt == nil {
		r.byExt = make(map[string]*Language)
	}
	for _, ext := range exts {
		if prev, ok := r.byExt[ext]; ok && prev.Name != l.Name {
			return fmt.Errorf("lang: extension %s already belongs to %s", ext, prev.Name)
		}
	}
	lp := r.lookupNameLocked(l.Name)
	if lp == nil {
		lp = &Language{Name: l.Name}
		r.langs = append(r.langs, lp)
	}
	lp.Lexers = l.Lexers
	for _, ext := range exts {
		if !slices.Contains(lp.Extensions, ext) {
			lp.Extensions = append(lp.Extensions, ext)
		}
		r.byExt[ext] = lp
	}
	return nil
}

func (r *Registry) lookupNameLocked(name string) *Language {
	for _, l := range r.langs {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// ForExtension resolves an extension such as ".pas" (the dot is optional).
func (r *Registry) ForExtension(ext string) (Language, error) {
	ext = normalizeExt(ext)
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byExt[ext]
	if !ok {
		return Language{}, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
	}
	return clone(l), nil
}

// ForPath resolves the language of a file by its extension.
func (r *Registry) ForPath(path string) (Language, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return Language{}, fmt.Errorf("%w: %s has none", ErrUnknownExtension, filepath.Base(path))
	}
	return r.ForExtension(ext)
}

// Languages lists registered languages in registration order.
func (r *Registry) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Language, len(r.langs))
	for i, l := range r.langs {
		out[i] = clone(l)
	}
	return out
}

// Matches reports whether some language claims path.
func (r *Registry) Matches(path string) bool {
	_, err := r.ForPath(path)
	return err == nil
}

func clone(l *Language) Language {
	c := *l
	c.Extensions = slices.Clone(l.Extensions)
	return c
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

var defaultRegistry = NewRegistry()

// Register adds l to the process-wide registry.
func Register(l Language) error { return defaultRegistry.Register(l) }

// ForExtension looks ext up in the process-wide registry.
func ForExtension(ext string) (Language, error) { return defaultRegistry.ForExtension(ext) }

// ForPath looks path up in the process-wide registry.
func ForPath(path string) (Language, error) { return defaultRegistry.ForPath(path) }

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }
