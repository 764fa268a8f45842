package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spring/internal/trace"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	opts := cfg.ResyncOptions()
	assert.Equal(t, 1, opts.LookbackMargin)
	assert.Equal(t, 3, opts.SyncRun)
	assert.Equal(t, []string{".pas"}, cfg.Files.Extensions)
	assert.Equal(t, 10*time.Minute, cfg.Cache.MemoryTTL.Duration)
	assert.Equal(t, trace.LevelOff, cfg.TraceLevel())
}

func TestDecodeOverrides(t *testing.T) {
	src := `
[resync]
lookback_margin = 2

[parser]
max_errors = 20

[files]
extensions = ["PP", ".pas", "pp"]

[cache]
memory_ttl = "90s"

[trace]
level = "detail"
colour = "yes"
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Resync.LookbackMargin)
	assert.Equal(t, 3, cfg.Resync.SyncRun, "unset keys keep defaults")
	assert.Equal(t, uint(20), cfg.Parser.MaxErrors)
	assert.Equal(t, []string{".pp", ".pas"}, cfg.Files.Extensions)
	assert.Equal(t, 90*time.Second, cfg.Cache.MemoryTTL.Duration)
	assert.Equal(t, trace.LevelDetail, cfg.TraceLevel())
	assert.Equal(t, []string{"trace.colour"}, cfg.Undecoded)
}

func TestDecodeRejectsBadValues(t *testing.T) {
	for _, src := range []string{
		"[resync]\nlookback_margin = 0\n",
		"[resync]\nsync_run = -1\n",
		"[trace]\nlevel = \"loud\"\n",
		"[cache]\nmemory_ttl = \"soon\"\n",
		"[resync\n",
	} {
		_, err := Decode(strings.NewReader(src))
		assert.Error(t, err, "source %q", src)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("[parser]\nmax_errors = 5\n"), 0o644))

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, uint(5), cfg.Parser.MaxErrors)
	assert.Equal(t, filepath.Join(root, FileName), cfg.Path)
}

func TestInitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := Init(dir)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	want := Default()
	want.Path = path
	assert.Equal(t, want, cfg)

	_, err = Init(dir)
	assert.Error(t, err, "second init must not overwrite")
}

func TestWriteContainsTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Default()))
	out := buf.String()
	for _, want := range []string{"[resync]", "lookback_margin = 1", "memory_ttl = \"10m0s\"", "[trace]"} {
		assert.Contains(t, out, want)
	}
}

func TestCacheDir(t *testing.T) {
	cfg := Default()
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "spring"), dir)

	cfg.Cache.Dir = "/var/cache/spring"
	dir, err = cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/spring", dir)
}
