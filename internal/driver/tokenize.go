package driver

import (
	"context"
	"fmt"
	"strconv"

	"spring/internal/diag"
	"spring/internal/lang"
	"spring/internal/observ"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/tokenbuf"
)

type TokenizeResult struct {
	Path   string
	File   *source.File
	Buffer *tokenbuf.Buffer
	Bag    *diag.Bag
	// Cached is set when the tokens came from the token cache.
	Cached bool
	Timer  *observ.Timer
}

// Tokenize lexes one file.
func Tokenize(ctx context.Context, path string, opts Options) (*TokenizeResult, error) {
	opts = opts.normalized()
	l, err := opts.Languages.ForPath(path)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := tokenizeFile(ctx, fs.Get(id), l, opts)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// TokenizeAll lexes files in parallel. A file that cannot be read gets
// an I/O diagnostic instead of failing the whole run.
func TokenizeAll(ctx context.Context, paths []string, opts Options) (*source.FileSet, []TokenizeResult, error) {
	opts = opts.normalized()
	fs := source.NewFileSet()
	results, err := forEach(ctx, paths, opts.Jobs, func(ctx context.Context, path string) (TokenizeResult, error) {
		f, l, bag, ok := load(fs, path, opts)
		if !ok {
			return TokenizeResult{Path: path, Bag: bag}, nil
		}
		return tokenizeFile(ctx, f, l, opts)
	})
	return fs, results, err
}

func tokenizeFile(ctx context.Context, f *source.File, l lang.Language, opts Options) (TokenizeResult, error) {
	res := TokenizeResult{Path: f.Path, File: f, Bag: opts.newBag(), Timer: observ.NewTimer()}
	err := res.Timer.Measure("lex", func() error {
		var err error
		res.Buffer, res.Cached, err = opts.Cache.Lex(ctx, f, l.Lexers)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("tokenize %s: %w", f.Path, err)
	}
	lexicalDiagnostics(res.Buffer, res.Bag)
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, "tokenize", f.Path, res.Timer,
			"tokens="+strconv.Itoa(res.Buffer.Len()))
	}
	return res, nil
}

// load reads path into fs. On failure the returned bag carries the
// I/O diagnostic.
func load(fs *source.FileSet, path string, opts Options) (*source.File, lang.Language, *diag.Bag, bool) {
	bag := opts.newBag()
	l, err := opts.Languages.ForPath(path)
	if err == nil {
		var id source.FileID
		if id, err = fs.Load(path); err == nil {
			return fs.Get(id), l, bag, true
		}
	}
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+err.Error()))
	return nil, lang.Language{}, bag, false
}

// lexicalDiagnostics reports the lexical errors recorded in buf.
func lexicalDiagnostics(buf *tokenbuf.Buffer, bag *diag.Bag) {
	f := buf.File()
	for i := range buf.Len() {
		tok := buf.At(i)
		switch tok.Kind {
		case token.Invalid:
			bag.Add(diag.NewError(diag.LexUnknownChar, tok.Span, fmt.Sprintf("Unknown character '%s'.", f.Slice(tok.Span))))
		case token.BadString:
			bag.Add(diag.NewError(diag.LexUnterminatedString, tok.Span, "Unterminated string literal."))
		}
	}
	unterminatedComment(buf, bag)
}

// unterminatedComment reports a block comment still open at the end of
// the text. Only resumable lexers record the mode, so plain buffers are
// never reported.
func unterminatedComment(buf *tokenbuf.Buffer, bag *diag.Bag) {
	n := buf.Len()
	if n == 0 {
		return
	}
	last := buf.At(n - 1)
	if last.Kind != token.Comment || last.State == token.StateDefault || !last.State.Usable() {
		return
	}
	// lines of one comment are adjacent; find the first
	first := n - 1
	for first > 0 {
		prev := buf.At(first - 1)
		if prev.Kind != token.Comment || prev.State == token.StateDefault {
			break
		}
		first--
	}
	span := source.Span{Start: buf.At(first).Span.Start, End: last.Span.End}
	bag.Add(diag.NewError(diag.LexUnterminatedBlockComment, span, "Unterminated block comment."))
}
