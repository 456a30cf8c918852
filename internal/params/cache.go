package params

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/koralabs/hal-minting-contracts/pkg/types"
)

// Cached serves parameters from memory for a fixed TTL before asking the
// wrapped provider again. It is safe for concurrent use.
type Cached struct {
	inner Provider
	cache *cache.Cache
}

// NewCached wraps inner with a cache whose entries live for ttl.
func NewCached(inner Provider, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Fetch implements Provider.
func (c *Cached) Fetch(ctx context.Context, network types.Network) (*Network, error) {
	if v, ok := c.cache.Get(string(network)); ok {
		return v.(*Network).Clone(), nil
	}
	p, err := c.inner.Fetch(ctx, network)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(string(network), p.Clone())
	return p, nil
}

// Flush drops every cached entry.
func (c *Cached) Flush() {
	c.cache.Flush()
}
