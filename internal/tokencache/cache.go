// Package tokencache keeps token buffers keyed by content hash: a
// memory layer with expiry in front of a msgpack layer on disk.
package tokencache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/vmihailenco/msgpack/v5"

	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/tokenbuf"
	"spring/internal/trace"
)

// ErrMiss is returned when neither layer holds the buffer.
var ErrMiss = errors.New("tokencache: miss")

// schemaVersion bumps whenever payload or lexer output changes shape.
const schemaVersion uint16 = 1

const defaultCleanupInterval = 30 * time.Minute

// payload is the on-disk record.
type payload struct {
	Schema   uint16
	Language string
	Snapshot tokenbuf.Snapshot
}

// Options configure Open.
type Options struct {
	// Dir holds the disk layer; empty disables it.
	Dir string
	// TTL is the memory expiry, 0 keeps entries forever.
	TTL time.Duration
	// Language namespaces keys so two lexers never share entries.
	Language string
}

// Stats counts lookups per layer.
type Stats struct {
	MemoryHits int
	DiskHits   int
	Misses     int
	Writes     int
}

// Cache is safe for concurrent use.
type Cache struct {
	mem  *gocache.Cache
	dir  string
	lang string

	mu    sync.RWMutex // guards disk files
	smu   sync.Mutex
	stats Stats
}

// Open prepares both layers.
func Open(opts Options) (*Cache, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c := &Cache{
		mem:  gocache.New(ttl, defaultCleanupInterval),
		dir:  opts.Dir,
		lang: opts.Language,
	}
	if c.lang == "" {
		c.lang = "spring"
	}
	if c.dir != "" {
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return nil, fmt.Errorf("tokencache: %w", err)
		}
	}
	return c, nil
}

func (c *Cache) key(hash [32]byte) string {
	return c.lang + "-" + hex.EncodeToString(hash[:])
}

func (c *Cache) pathFor(key string) string {
	// подкаталог по первым двум символам хеша, чтобы не раздувать один каталог
	h := key[len(c.lang)+1:]
	return filepath.Join(c.dir, "tokens", h[:2], key+".mp")
}

// Get returns the cached buffer for f, or ErrMiss.
func (c *Cache) Get(f *source.File) (*tokenbuf.Buffer, error) {
	if c == nil {
		return nil, ErrMiss
	}
	key := c.key(f.Hash)
	if v, ok := c.mem.Get(key); ok {
		if snap, ok := v.(tokenbuf.Snapshot); ok {
			if buf, err := tokenbuf.FromSnapshot(f, snap); err == nil {
				c.count(func(s *Stats) { s.MemoryHits++ })
				return buf, nil
			}
		}
		c.mem.Delete(key)
	}
	if c.dir == "" {
		c.count(func(s *Stats) { s.Misses++ })
		return nil, ErrMiss
	}
	var p payload
	ok, err := c.readDisk(key, &p)
	if err != nil {
		return nil, err
	}
	if !ok || p.Schema != schemaVersion || p.Language != c.lang {
		c.count(func(s *Stats) { s.Misses++ })
		return nil, ErrMiss
	}
	buf, err := tokenbuf.FromSnapshot(f, p.Snapshot)
	if err != nil {
		// битая запись: считаем промахом и перезапишем при следующем Put
		c.count(func(s *Stats) { s.Misses++ })
		return nil, fmt.Errorf("%w: %w", ErrMiss, err)
	}
	c.mem.SetDefault(key, p.Snapshot)
	c.count(func(s *Stats) { s.DiskHits++ })
	return buf, nil
}

// Put stores buf in both layers.
func (c *Cache) Put(buf *tokenbuf.Buffer) error {
	if c == nil {
		return nil
	}
	snap := buf.Snapshot()
	key := c.key(snap.Hash)
	c.mem.SetDefault(key, snap)
	c.count(func(s *Stats) { s.Writes++ })
	if c.dir == "" {
		return nil
	}
	return c.writeDisk(key, &payload{Schema: schemaVersion, Language: c.lang, Snapshot: snap})
}

// Lex returns the cached buffer for f or lexes it and stores the result.
func (c *Cache) Lex(ctx context.Context, f *source.File, factory lexer.Factory) (*tokenbuf.Buffer, bool, error) {
	buf, err := c.Get(f)
	if err == nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeFile, "tokencache.hit", f.Path)
		return buf, true, nil
	}
	if !errors.Is(err, ErrMiss) {
		return nil, false, err
	}
	buf, err = tokenbuf.Lex(ctx, factory.New(f))
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(buf); err != nil {
		return buf, false, err
	}
	return buf, false, nil
}

func (c *Cache) writeDisk(key string, p *payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(p); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (c *Cache) readDisk(key string, out *payload) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		// несовместимый формат трактуем как промах
		return false, nil
	}
	return true, nil
}

// Flush empties the memory layer.
func (c *Cache) Flush() {
	if c != nil {
		c.mem.Flush()
	}
}

// DropAll removes the disk layer and flushes memory.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.Flush()
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "tokens"))
}

// Stats returns lookup counters.
func (c *Cache) Stats() Stats {
	c.smu.Lock()
	defer c.smu.Unlock()
	return c.stats
}

func (c *Cache) count(fn func(*Stats)) {
	c.smu.Lock()
	fn(&c.stats)
	c.smu.Unlock()
}
