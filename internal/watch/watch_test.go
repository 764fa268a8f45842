package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spring/internal/lexer"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/tokencache"
)

const original = "begin\n  x := 1;\n  y := x + 2;\nend;\n"

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	return p
}

func freshDump(t *testing.T, text string) string {
	t.Helper()
	f := source.NewFile("fresh.pas", []byte(text))
	tree, err := parser.New(lexer.New(f), parser.Options{}).ParseFile(context.Background())
	require.NoError(t, err)
	return tree.Dump()
}

func TestAddParsesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "main.pas", original)
	writeFile(t, dir, "notes.txt", "not pascal")

	var ups []Update
	cfg := DefaultConfig()
	cfg.OnUpdate = func(u Update) { ups = append(ups, u) }
	w, err := New(cfg)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(context.Background(), dir))
	assert.Equal(t, []string{filepath.ToSlash(p)}, w.Paths())
	require.Len(t, ups, 1)
	assert.True(t, ups[0].Initial)
	assert.NotNil(t, ups[0].Tree)
}

func TestReloadIsIncremental(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "main.pas", original)
	w, err := New(DefaultConfig())
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(context.Background(), p))

	edited := "begin\n  x := 10;\n  y := x + 2;\nend;\n"
	up, err := w.Reload(context.Background(), p, []byte(edited))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), up.Version)
	assert.Equal(t, source.Span{Start: 14, End: 14}, up.Edit.Range)
	assert.True(t, up.Affected.End-up.Affected.Start < uint32(len(edited)), "affected %s covers the whole text", up.Affected)
	assert.Equal(t, freshDump(t, edited), up.Tree.Dump())

	tree, ok := w.Tree(p)
	require.True(t, ok)
	assert.Same(t, up.Tree, tree)

	// CRLF из редактора нормализуется
	up, err = w.Reload(context.Background(), p, []byte("begin\r\n  x := 10;\r\nend;\r\n"))
	require.NoError(t, err)
	assert.Equal(t, freshDump(t, "begin\n  x := 10;\nend;\n"), up.Tree.Dump())
}

func TestTreeDuringReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "main.pas", original)
	w, err := New(DefaultConfig())
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(context.Background(), p))

	const rounds = 50
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			tree, ok := w.Tree(p)
			if !ok || tree == nil || !tree.Root.IsValid() {
				t.Error("tree missing while reloading")
				return
			}
			_ = tree.Dump()
		}
	}()

	// две горутины правят один файл; разборы не должны пересекаться
	var writers sync.WaitGroup
	for g := range 2 {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for i := range rounds {
				text := fmt.Sprintf("begin\n  x := %d;\n  y := x + %d;\nend;\n", i, g)
				if _, err := w.Reload(context.Background(), p, []byte(text)); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	writers.Wait()
	close(stop)
	wg.Wait()

	final := "begin\n  x := 7;\nend;\n"
	up, err := w.Reload(context.Background(), p, []byte(final))
	require.NoError(t, err)
	tree, ok := w.Tree(p)
	require.True(t, ok)
	assert.Same(t, up.Tree, tree)
	assert.Equal(t, freshDump(t, final), tree.Dump())
}

func TestReloadUntracked(t *testing.T) {
	w, err := New(DefaultConfig())
	require.NoError(t, err)
	defer w.Close()
	_, err = w.Reload(context.Background(), "missing.pas", nil)
	assert.Error(t, err)
}

func TestReloadAfterCancelledUpdate(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "main.pas", original)
	w, err := New(DefaultConfig())
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(context.Background(), p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Reload(ctx, p, []byte("begin x := 2; end;"))
	require.ErrorIs(t, err, context.Canceled)

	final := "begin x := 3; end;"
	up, err := w.Reload(context.Background(), p, []byte(final))
	require.NoError(t, err)
	assert.Equal(t, freshDump(t, final), up.Tree.Dump())
}

func TestCacheSeedsFirstParse(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "main.pas", original)
	cache, err := tokencache.Open(tokencache.Options{Dir: filepath.Join(dir, "cache")})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Cache = cache
	for range 2 {
		w, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, w.Add(context.Background(), p))
		require.NoError(t, w.Close())
	}
	assert.Equal(t, 1, cache.Stats().MemoryHits)
}

func TestRunPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "main.pas", original)

	updates := make(chan Update, 8)
	cfg := DefaultConfig()
	cfg.Debounce = 20 * time.Millisecond
	cfg.OnUpdate = func(u Update) {
		if !u.Initial {
			updates <- u
		}
	}
	w, err := New(cfg)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(context.Background(), dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	edited := "begin\n  x := 1;\n  y := x * 2;\nend;\n"
	writeFile(t, dir, "main.pas", edited)

	select {
	case up := <-updates:
		require.NoError(t, up.Err)
		assert.Equal(t, filepath.ToSlash(p), up.Path)
		assert.Equal(t, freshDump(t, edited), up.Tree.Dump())
	case <-time.After(10 * time.Second):
		t.Fatal("no update after write")
	}

	cancel()
	require.NoError(t, <-done)
}
