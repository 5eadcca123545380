package fsdb

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// cacheKeyKind discriminates the different request shapes cached in Cache.
type cacheKeyKind int

const (
	keyPage cacheKeyKind = iota
	keyPageRedirect
	keyPageTitle
	keyPageStamp
	keyPagePrio
	keySubPages
	keyNavStop
	keyNavLabel
	keyMacro
	keyString
	keyImage
	keyHeaders
)

// cacheKey is the composite lookup key for Cache: the request kind plus
// the identifier (and, for macros, the macro name) it applies to.
type cacheKey struct {
	kind  cacheKeyKind
	ident string
	extra string
}

// cacheValue is a closed sum of the possible cached payload shapes.
type cacheValue struct {
	blob     []byte
	str      string
	u64      uint64
	boolean  bool
	subPages []PageInfo
}

// Cache wraps an FSIntf with an LRU cache of recently fetched values. It
// follows the "never hold the cache lock during I/O" rule: on a miss it
// releases the lock, performs the filesystem read, and then re-acquires
// the lock via a get-or-insert so that concurrent misses for the same key
// collapse onto one read's result rather than overwriting each other.
type Cache struct {
	fs *FSIntf

	mu    sync.Mutex
	inner *lru.Cache[cacheKey, cacheValue]
}

// NewCache builds a Cache of at most size entries in front of fs. A size
// of zero disables caching entirely: every getter goes straight to the
// filesystem.
func NewCache(fs *FSIntf, size int) (*Cache, error) {
	if size <= 0 {
		return &Cache{fs: fs}, nil
	}

	inner, err := lru.New[cacheKey, cacheValue](size)
	if err != nil {
		return nil, err
	}

	return &Cache{fs: fs, inner: inner}, nil
}

// Clear discards every cached entry. Called on filesystem-change
// notification and on SIGHUP.
func (c *Cache) Clear() {
	if c.inner == nil {
		return
	}

	c.mu.Lock()
	n := c.inner.Len()
	c.inner.Purge()
	c.mu.Unlock()

	if n > 0 {
		log.Info().Int("entries", n).Msg("Page database cache cleared")
	}
}

// Len reports the number of entries currently cached, used by the admin
// health endpoint to report cache occupancy.
func (c *Cache) Len() int {
	if c.inner == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.inner.Len()
}

// getCached implements the lock-release-refetch-reinsert pattern shared
// by every getter below.
func getCached(c *Cache, key cacheKey, fetch func() (cacheValue, error)) (cacheValue, error) {
	if c.inner == nil {
		return fetch()
	}

	c.mu.Lock()
	if v, ok := c.inner.Get(key); ok {
		c.mu.Unlock()

		return v, nil
	}
	c.mu.Unlock()

	v, err := fetch()
	if err != nil {
		return cacheValue{}, err
	}

	c.mu.Lock()
	actual, found, _ := c.inner.PeekOrAdd(key, v)
	c.mu.Unlock()

	if !found {
		return v, nil
	}

	return actual, nil
}
