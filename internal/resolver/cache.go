package resolver

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type srvEntry struct {
	host string
	port uint16
	err  error
}

// CachedLookup remembers SRV answers, including misses, for a limited time.
// Batches often repeat hostnames; each is queried once per TTL.
type CachedLookup struct {
	next  SRVLookup
	cache *expirable.LRU[string, srvEntry]
}

// NewCachedLookup wraps next with an LRU of size entries expiring after ttl.
func NewCachedLookup(next SRVLookup, size int, ttl time.Duration) *CachedLookup {
	if size <= 0 {
		size = 1024
	}

	return &CachedLookup{
		next:  next,
		cache: expirable.NewLRU[string, srvEntry](size, nil, ttl),
	}
}

// LookupSRV serves name from the cache or asks the wrapped lookup.
// Context errors are not cached.
func (c *CachedLookup) LookupSRV(ctx context.Context, name string) (string, uint16, error) {
	if e, ok := c.cache.Get(name); ok {
		return e.host, e.port, e.err
	}

	host, port, err := c.next.LookupSRV(ctx, name)
	if ctx.Err() == nil {
		c.cache.Add(name, srvEntry{host: host, port: port, err: err})
	}

	return host, port, err
}

// Len returns the number of cached names.
func (c *CachedLookup) Len() int {
	return c.cache.Len()
}
