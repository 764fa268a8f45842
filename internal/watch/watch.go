// Package watch keeps parse trees of files on disk up to date,
// rescanning only what changed between saves.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"spring/internal/ast"
	"spring/internal/lang"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/tokenbuf"
	"spring/internal/tokencache"
	"spring/internal/trace"
)

var log = commonlog.GetLogger("spring.watch")

// Config holds watcher configuration options.
type Config struct {
	Debounce  time.Duration
	Languages *lang.Registry
	Parser    parser.Options
	// Cache is optional; it seeds the first parse of every file.
	Cache *tokencache.Cache
	// OnUpdate receives every reparse, from a single goroutine.
	OnUpdate func(Update)
}

// DefaultConfig returns the defaults used by `spring watch`.
func DefaultConfig() Config {
	return Config{Debounce: 150 * time.Millisecond, Languages: lang.Default()}
}

// Update describes one reparse.
type Update struct {
	Path     string
	Version  uint32
	Tree     *ast.Tree
	Edit     source.Edit
	Affected source.Span
	// Initial is set for the first parse of a file.
	Initial bool
	Elapsed time.Duration
	Err     error
}

type document struct {
	lang lang.Language

	// mu serialises reparses; parser is only touched under it.
	mu     sync.Mutex
	parser *parser.Parser
	// tree is the last complete tree, readable without mu.
	tree atomic.Pointer[ast.Tree]
}

// Watcher monitors files and directories for saved changes.
type Watcher struct {
	cfg   Config
	fsw   *fsnotify.Watcher
	files *source.FileSet

	mu   sync.Mutex
	docs map[string]*document
}

// New creates a watcher; nothing is watched until Add.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.Languages == nil {
		cfg.Languages = lang.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		cfg:   cfg,
		fsw:   fsw,
		files: source.NewFileSet(),
		docs:  make(map[string]*document),
	}, nil
}

// Add starts watching path. A directory is walked, and every file a
// registered language claims gets parsed.
func (w *Watcher) Add(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if err := w.fsw.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("watching directory %s: %w", filepath.Dir(path), err)
		}
		return w.open(ctx, path)
	}
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(p); err != nil {
				return fmt.Errorf("watching directory %s: %w", p, err)
			}
			return nil
		}
		if !w.cfg.Languages.Matches(p) {
			return nil
		}
		return w.open(ctx, p)
	})
}

// Paths lists the tracked files.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.docs))
	for p := range w.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Tree returns the latest tree of path. It does not wait for a reparse
// in progress.
func (w *Watcher) Tree(path string) (*ast.Tree, bool) {
	w.mu.Lock()
	doc, ok := w.docs[filepath.ToSlash(filepath.Clean(path))]
	w.mu.Unlock()
	if !ok {
		return nil, false
	}
	return doc.tree.Load(), true
}

func (w *Watcher) open(ctx context.Context, path string) error {
	l, err := w.cfg.Languages.ForPath(path)
	if err != nil {
		return err
	}
	start := time.Now()
	id, err := w.files.Load(path)
	if err != nil {
		return err
	}
	f := w.files.Get(id)

	lx := l.Lexers.New(f)
	if w.cfg.Cache != nil {
		if buf, err := w.cfg.Cache.Get(f); err == nil {
			lx = buf.Lexer()
		}
	}
	p := parser.New(lx, w.cfg.Parser)
	tree, err := p.ParseFile(ctx)
	if err != nil {
		return err
	}
	if w.cfg.Cache != nil {
		if err := w.cfg.Cache.Put(p.TokenBuffer()); err != nil {
			log.Warning("token cache write failed", "path", f.Path, "err", err)
		}
	}

	doc := &document{lang: l, parser: p}
	doc.tree.Store(tree)
	w.mu.Lock()
	w.docs[f.Path] = doc
	w.mu.Unlock()
	log.Info("opened", "path", f.Path, "tokens", p.TokenBuffer().Len())
	w.notify(Update{Path: f.Path, Version: f.Version, Tree: tree, Affected: source.Span{End: f.Len()}, Initial: true, Elapsed: time.Since(start)})
	return nil
}

// Reload reparses path with new content. It is what a debounced write
// event triggers and may be called directly.
func (w *Watcher) Reload(ctx context.Context, path string, content []byte) (Update, error) {
	key := filepath.ToSlash(filepath.Clean(path))
	w.mu.Lock()
	doc, ok := w.docs[key]
	w.mu.Unlock()
	if !ok {
		return Update{}, fmt.Errorf("watch: %s is not tracked", path)
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()

	span, ctx := trace.Start(ctx, trace.ScopeFile, "watch.reload")
	start := time.Now()
	content, _ = source.Normalize(content)
	next, edit, _ := w.files.Replace(key, content)
	up := Update{Path: key, Version: next.Version, Edit: edit}

	tree, affected, err := doc.parser.Update(ctx, edit, doc.lang.Lexers)
	if errors.Is(err, tokenbuf.ErrStaleEdit) {
		// an earlier reparse was cancelled and the buffer lags the FileSet
		log.Notice("stale token buffer, reparsing from scratch", "path", key)
		tree, err = doc.parser.ReParse(ctx, doc.lang.Lexers.New(next))
		affected = source.Span{End: next.Len()}
	}
	up.Elapsed = time.Since(start)
	if err != nil {
		span.End(err.Error())
		up.Err = err
		return up, err
	}
	up.Tree, up.Affected = tree, affected
	doc.tree.Store(tree)
	span.Attr("affected", affected.String()).End("")
	if w.cfg.Cache != nil {
		if err := w.cfg.Cache.Put(doc.parser.TokenBuffer()); err != nil {
			log.Warning("token cache write failed", "path", key, "err", err)
		}
	}
	log.Debug("reparsed", "path", key, "version", next.Version, "affected", affected.String(), "elapsed", up.Elapsed)
	return up, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	changed := make(chan string, 64)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(changed)
		return w.collect(gctx, changed)
	})
	g.Go(func() error {
		for path := range changed {
			content, err := os.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					log.Info("file removed", "path", path)
					continue
				}
				log.Error("read failed", "path", path, "err", err)
				continue
			}
			up, err := w.Reload(gctx, path, content)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				log.Error("reparse failed", "path", path, "err", err)
			}
			w.notify(up)
		}
		return nil
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// collect debounces fsnotify events per path.
func (w *Watcher) collect(ctx context.Context, out chan<- string) error {
	var (
		timer   *time.Timer
		pending = make(map[string]struct{})
	)
	timerC := func() <-chan time.Time {
		if timer != nil {
			return timer.C
		}
		return nil
	}
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.ToSlash(filepath.Clean(event.Name))] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}

		case <-timerC():
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				select {
				case out <- p:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warning("fsnotify error", "err", err)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}

func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	w.mu.Lock()
	_, ok := w.docs[filepath.ToSlash(filepath.Clean(event.Name))]
	w.mu.Unlock()
	return ok
}

func (w *Watcher) notify(up Update) {
	if w.cfg.OnUpdate != nil {
		w.cfg.OnUpdate(up)
	}
}

// Close releases the fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
