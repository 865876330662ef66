package cache

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/domino14/repopt/book"
	"github.com/domino14/repopt/position"
)

// The cache sits in front of an opening book so that every position is only
// ever looked up once, even across runs when it is persisted with Save and
// Load. Both optimizers share a single BookCache.

// BookCache is a memoizing book.Provider. It is safe for concurrent use.
type BookCache struct {
	sync.Mutex
	entries  map[position.Key]book.Moves
	dirty    bool
	provider book.Provider
	group    singleflight.Group
}

func New(provider book.Provider) *BookCache {
	return &BookCache{
		entries:  make(map[position.Key]book.Moves),
		provider: provider,
	}
}

func (c *BookCache) get(key position.Key) (book.Moves, bool) {
	c.Lock()
	defer c.Unlock()
	m, ok := c.entries[key]
	return m, ok
}

func (c *BookCache) fetch(ctx context.Context, key position.Key, fen string) (book.Moves, error) {
	// Another caller may have stored the answer while we waited to get here.
	if m, ok := c.get(key); ok {
		return m, nil
	}
	log.Debug().Str("key", string(key)).Msg("loading-book-moves")
	m, err := c.provider.Moves(ctx, fen)
	if err != nil {
		return nil, err
	}
	c.Lock()
	c.entries[key] = m
	c.dirty = true
	c.Unlock()
	return m, nil
}

// Moves implements book.Provider. Positions are keyed canonically, so
// descriptions differing only in move counters share one upstream lookup.
func (c *BookCache) Moves(ctx context.Context, fen string) (book.Moves, error) {
	key := position.Canonicalize(fen)
	if m, ok := c.get(key); ok {
		log.Debug().Str("key", string(key)).Msg("getting-book-moves-from-cache")
		return clone(m), nil
	}
	v, err, _ := c.group.Do(string(key), func() (any, error) {
		return c.fetch(ctx, key, fen)
	})
	if err != nil {
		return nil, err
	}
	return clone(v.(book.Moves)), nil
}

// Dirty reports whether anything was fetched since the last Load or Save.
func (c *BookCache) Dirty() bool {
	c.Lock()
	defer c.Unlock()
	return c.dirty
}

func (c *BookCache) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.entries)
}

// Load replaces the cached entries with those in r.
func (c *BookCache) Load(r io.Reader) error {
	entries, err := decode(r)
	if err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	c.entries = entries
	c.dirty = false
	return nil
}

// Save writes every cached entry to w.
func (c *BookCache) Save(w io.Writer) error {
	c.Lock()
	defer c.Unlock()
	if err := encode(w, c.entries); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func clone(m book.Moves) book.Moves {
	out := make(book.Moves, len(m))
	copy(out, m)
	return out
}
