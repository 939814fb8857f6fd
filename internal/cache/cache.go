// Package cache memoizes compilation. CompileCache maps source text to
// bytecode by hash, optionally backed by a persistent Store; Handles hands
// out opaque identifiers so compiling and executing can be timed apart.
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/oarkflow/log"

	"github.com/xirelogy/go-mumei/internal/bytecode"
)

// Stats is a snapshot of the compile cache counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Entries int     `json:"entries"`
}

// CompileFunc turns source text into bytecode.
type CompileFunc func(source string) (*bytecode.ByteCode, error)

// CompileCache is safe for concurrent use. Stored and returned bytecode
// are clones, so callers may not corrupt cached entries.
type CompileCache struct {
	mu      sync.Mutex
	entries map[uint64]*bytecode.ByteCode
	hits    uint64
	misses  uint64
	store   *Store
	logger  *log.Logger
}

type Option func(*CompileCache)

// WithStore persists compiled bytecode and consults it on misses.
func WithStore(s *Store) Option {
	return func(c *CompileCache) { c.store = s }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *CompileCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCompileCache(opts ...Option) *CompileCache {
	c := &CompileCache{
		entries: make(map[uint64]*bytecode.ByteCode),
		logger:  &log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key hashes source text.
func Key(source string) uint64 {
	return xxhash.Sum64String(source)
}

// Get returns a copy of the bytecode cached for source. A miss in memory
// falls through to the store, if any.
func (c *CompileCache) Get(source string) (*bytecode.ByteCode, bool) {
	key := Key(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	if bc, ok := c.entries[key]; ok {
		c.hits++
		c.logger.Debug().Uint64("key", key).Msg("compile cache hit")
		return bc.Clone(), true
	}
	if c.store != nil {
		bc, ok, err := c.store.Load(key)
		if err != nil {
			c.logger.Warn().Err(err).Uint64("key", key).Msg("bytecode store load failed")
		} else if ok {
			c.hits++
			c.entries[key] = bc
			c.logger.Debug().Uint64("key", key).Msg("compile cache hit (store)")
			return bc.Clone(), true
		}
	}
	c.misses++
	c.logger.Debug().Uint64("key", key).Msg("compile cache miss")
	return nil, false
}

// Put caches a copy of bc for source.
func (c *CompileCache) Put(source string, bc *bytecode.ByteCode) {
	key := Key(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = bc.Clone()
	if c.store != nil {
		if err := c.store.Save(key, bc); err != nil {
			c.logger.Warn().Err(err).Uint64("key", key).Msg("bytecode store save failed")
		}
	}
}

// GetOrCompile returns cached bytecode for source, compiling and caching
// it on a miss. Compile errors are not cached.
func (c *CompileCache) GetOrCompile(source string, compile CompileFunc) (*bytecode.ByteCode, error) {
	if bc, ok := c.Get(source); ok {
		return bc, nil
	}
	bc, err := compile(source)
	if err != nil {
		return nil, err
	}
	c.Put(source, bc)
	return bc, nil
}

func (c *CompileCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Clear drops every in-memory entry and resets the counters. The store
// is left alone.
func (c *CompileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*bytecode.ByteCode)
	c.hits, c.misses = 0, 0
}
