package plan

import (
	"sync"

	"github.com/dictaflow/textinject/internal/compat"
)

// Plan derivation is pure and application identifiers recur constantly
// during a session, so derived plans are cached keyed by (application,
// text-length bucket, is-ASCII). Invalidated only on an explicit table
// change or process restart. User-forced methods bypass the cache.
type Cache struct {
	mu    sync.Mutex
	m     map[cacheKey]Plan
	table *compat.Table
}

type cacheKey struct {
	appID  string
	bucket int
	ascii  bool
}

// bucket groups text lengths so the cache stays small while still
// separating lengths that select different methods.
func bucket(chars int) int {
	return chars / LengthThreshold
}

// NewCache creates a plan cache over table and registers itself for
// invalidation on table reloads.
func NewCache(table *compat.Table) *Cache {
	c := &Cache{m: make(map[cacheKey]Plan), table: table}
	table.OnChange(c.Invalidate)
	return c
}

// For returns the cached plan for the request, deriving it on miss. Forced
// methods are rare and derived fresh.
func (c *Cache) For(text string, forced Method, appID string) Plan {
	if forced != MethodAuto {
		return For(text, forced, appID, c.table)
	}

	key := cacheKey{appID: appID, bucket: bucket(len([]rune(text))), ascii: isASCII(text)}

	c.mu.Lock()
	p, ok := c.m[key]
	c.mu.Unlock()
	if ok {
		return p
	}

	p = For(text, MethodAuto, appID, c.table)

	c.mu.Lock()
	c.m[key] = p
	c.mu.Unlock()
	return p
}

// Invalidate drops every cached plan; called when the compat table
// reloads or a user preference changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.m = make(map[cacheKey]Plan)
	c.mu.Unlock()
}
