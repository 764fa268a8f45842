package driver

import (
	"context"
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/lang"
	"spring/internal/lexer"
	"spring/internal/observ"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/tokenbuf"
)

type ParseResult struct {
	Path   string
	File   *source.File
	Tree   *ast.Tree
	Buffer *tokenbuf.Buffer
	Bag    *diag.Bag
	Cached bool
	Timer  *observ.Timer
}

// Parse parses one file.
func Parse(ctx context.Context, path string, opts Options) (*ParseResult, error) {
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
	res, err := parseFile(ctx, fs.Get(id), l, opts)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ParseAll parses files in parallel, see TokenizeAll.
func ParseAll(ctx context.Context, paths []string, opts Options) (*source.FileSet, []ParseResult, error) {
	opts = opts.normalized()
	fs := source.NewFileSet()
	results, err := forEach(ctx, paths, opts.Jobs, func(ctx context.Context, path string) (ParseResult, error) {
		f, l, bag, ok := load(fs, path, opts)
		if !ok {
			return ParseResult{Path: path, Bag: bag}, nil
		}
		return parseFile(ctx, f, l, opts)
	})
	return fs, results, err
}

func parseFile(ctx context.Context, f *source.File, l lang.Language, opts Options) (ParseResult, error) {
	res := ParseResult{Path: f.Path, File: f, Bag: opts.newBag(), Timer: observ.NewTimer()}

	popts := opts.Parser
	var reporter diag.Reporter = diag.BagReporter{Bag: res.Bag}
	if popts.Reporter != nil {
		reporter = diag.MultiReporter{reporter, popts.Reporter}
	}
	popts.Reporter = diag.Dedup(reporter)
	if popts.MaxErrors == 0 && opts.MaxDiagnostics > 0 {
		maxErrors, err := safecast.Conv[uint](opts.MaxDiagnostics)
		if err != nil {
			return res, err
		}
		popts.MaxErrors = maxErrors
	}

	var lx lexer.Lexer = l.Lexers.New(f)
	if buf, err := opts.Cache.Get(f); err == nil {
		lx = buf.Lexer()
		res.Cached = true
	}
	p := parser.New(lx, popts)
	err := res.Timer.Measure("parse", func() error {
		var err error
		res.Tree, err = p.ParseFile(ctx)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	res.Buffer = p.TokenBuffer()
	if !res.Cached {
		if err := opts.Cache.Put(res.Buffer); err != nil {
			return res, err
		}
	}
	unterminatedComment(res.Buffer, res.Bag)
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, "parse", f.Path, res.Timer,
			"nodes="+strconv.Itoa(res.Tree.Len()))
	}
	return res, nil
}
