// Package config loads spring.toml.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"spring/internal/tokenbuf"
	"spring/internal/trace"
)

// FileName is the name looked up from the working directory upwards.
const FileName = "spring.toml"

// Config mirrors spring.toml.
type Config struct {
	Resync Resync `toml:"resync"`
	Parser Parser `toml:"parser"`
	Files  Files  `toml:"files"`
	Cache  Cache  `toml:"cache"`
	Trace  Trace  `toml:"trace"`

	// Path is the file the values came from, empty for defaults.
	Path string `toml:"-"`
	// Undecoded lists keys present in the file but unknown to Config.
	Undecoded []string `toml:"-"`
}

type Resync struct {
	LookbackMargin int `toml:"lookback_margin"`
	SyncRun        int `toml:"sync_run"`
}

type Parser struct {
	// MaxErrors caps diagnostics per parse, 0 means unlimited.
	MaxErrors uint `toml:"max_errors"`
}

type Files struct {
	Extensions []string `toml:"extensions"`
}

type Cache struct {
	// Dir overrides $XDG_CACHE_HOME/spring.
	Dir       string   `toml:"dir"`
	MemoryTTL Duration `toml:"memory_ttl"`
	Disabled  bool     `toml:"disabled"`
}

type Trace struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Duration is a time.Duration written as "10m" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the values used when no spring.toml exists.
func Default() Config {
	return Config{
		Resync: Resync{
			LookbackMargin: tokenbuf.DefaultLookbackMargin,
			SyncRun:        tokenbuf.DefaultSyncRun,
		},
		Files: Files{Extensions: []string{".pas"}},
		Cache: Cache{MemoryTTL: Duration{10 * time.Minute}},
		Trace: Trace{Level: "off"},
	}
}

// Find walks from startDir to the filesystem root looking for spring.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest spring.toml above startDir, or defaults.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	for _, key := range meta.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, key.String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults; used for stdin and tests.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	for _, key := range meta.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, key.String())
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and normalizes extensions.
func (c *Config) Validate() error {
	if c.Resync.LookbackMargin < 1 {
		return fmt.Errorf("resync.lookback_margin must be at least 1, got %d", c.Resync.LookbackMargin)
	}
	if c.Resync.SyncRun < 1 {
		return fmt.Errorf("resync.sync_run must be at least 1, got %d", c.Resync.SyncRun)
	}
	if c.Cache.MemoryTTL.Duration < 0 {
		return fmt.Errorf("cache.memory_ttl must not be negative")
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("trace.level: %w", err)
	}
	exts := make([]string, 0, len(c.Files.Extensions))
	for _, ext := range c.Files.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	c.Files.Extensions = exts
	return nil
}

// ResyncOptions converts the [resync] table.
func (c Config) ResyncOptions() tokenbuf.Options {
	return tokenbuf.Options{LookbackMargin: c.Resync.LookbackMargin, SyncRun: c.Resync.SyncRun}
}

// TraceLevel parses [trace] level; Validate has already checked it.
func (c Config) TraceLevel() trace.Level {
	lvl, _ := trace.ParseLevel(c.Trace.Level)
	return lvl
}

// CacheDir resolves the token cache directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "spring"), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("no cache directory: %w", err)
	}
	return filepath.Join(base, "spring"), nil
}

// Write encodes c as TOML.
func Write(w io.Writer, c Config) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	return enc.Encode(c)
}

// Init writes the default spring.toml into dir unless one exists.
func Init(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return path, fmt.Errorf("%s already exists", path)
		}
		return path, err
	}
	if err := Write(f, Default()); err != nil {
		_ = f.Close()
		return path, err
	}
	return path, f.Close()
}
