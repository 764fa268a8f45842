package tokencache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/tokenbuf"
)

const sample = "begin\n  { note }\n  x := 'a' + 1;\nend\n"

func lexed(t *testing.T, f *source.File) *tokenbuf.Buffer {
	t.Helper()
	buf, err := tokenbuf.Lex(context.Background(), lexer.New(f))
	require.NoError(t, err)
	return buf
}

func TestMemoryRoundTrip(t *testing.T) {
	c, err := Open(Options{})
	require.NoError(t, err)

	f := source.NewFile("a.pas", []byte(sample))
	_, err = c.Get(f)
	require.ErrorIs(t, err, ErrMiss)

	want := lexed(t, f)
	require.NoError(t, c.Put(want))

	// другой снапшот с тем же содержимым
	g := source.NewFile("b.pas", []byte(sample))
	got, err := c.Get(g)
	require.NoError(t, err)
	assert.Same(t, g, got.File())
	assert.Equal(t, want.Tokens(), got.Tokens())
	assert.Equal(t, Stats{MemoryHits: 1, Misses: 1, Writes: 1}, c.Stats())
}

func TestDiskSurvivesFlush(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(Options{Dir: dir})
	require.NoError(t, err)

	f := source.NewFile("a.pas", []byte(sample))
	require.NoError(t, c.Put(lexed(t, f)))
	c.Flush()

	got, err := c.Get(f)
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	assert.Equal(t, 1, c.Stats().DiskHits)

	// теперь запись снова в памяти
	_, err = c.Get(f)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Stats().MemoryHits)

	// новый процесс видит ту же запись
	c2, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	_, err = c2.Get(f)
	require.NoError(t, err)
}

func TestLanguageNamespaces(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(Options{Dir: dir, Language: "spring"})
	require.NoError(t, err)
	b, err := Open(Options{Dir: dir, Language: "other"})
	require.NoError(t, err)

	f := source.NewFile("a.pas", []byte(sample))
	require.NoError(t, a.Put(lexed(t, f)))
	_, err = b.Get(f)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCorruptDiskEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(Options{Dir: dir})
	require.NoError(t, err)

	f := source.NewFile("a.pas", []byte(sample))
	require.NoError(t, c.Put(lexed(t, f)))
	c.Flush()

	var entries []string
	require.NoError(t, filepath.WalkDir(filepath.Join(dir, "tokens"), func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			entries = append(entries, p)
		}
		return err
	}))
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(entries[0], []byte{0xc1}, 0o644))

	_, err = c.Get(f)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestLexFillsCache(t *testing.T) {
	c, err := Open(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	f := source.NewFile("a.pas", []byte(sample))

	buf, hit, err := c.Lex(context.Background(), f, lexer.ResumableFactory())
	require.NoError(t, err)
	assert.False(t, hit)

	again, hit, err := c.Lex(context.Background(), f, lexer.ResumableFactory())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.True(t, tokenbuf.Equal(buf, again))

	require.NoError(t, c.DropAll())
	_, err = c.Get(f)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	f := source.NewFile("a.pas", []byte(sample))
	_, err := c.Get(f)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Put(lexed(t, f)))
}
