// Package routecache stores found routes between searches. Cached routes
// are hints only: callers re-validate them before use.
package routecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gravitas-games/freepath/pkg/hex"
)

// ErrCorruptRoute is returned when a stored route cannot be decoded.
var ErrCorruptRoute = errors.New("routecache: corrupt route")

// Cache is a store of routes keyed by Key.
type Cache interface {
	Get(ctx context.Context, key string) ([]hex.Direction, bool, error)
	Put(ctx context.Context, key string, route []hex.Direction) error
	Delete(ctx context.Context, key string) error
}

// Key builds the cache key of a route of the given kind.
func Key(kind string, start, dest hex.Axial) string {
	return fmt.Sprintf("%s:%d,%d:%d,%d", kind, start.Q, start.R, dest.Q, dest.R)
}

// Scoped returns a view of c that prefixes every key with scope, so
// several worlds can share one store without reading each other's routes.
// An empty scope returns c itself.
func Scoped(c Cache, scope string) Cache {
	if scope == "" {
		return c
	}
	return scopedCache{inner: c, prefix: scope + ":"}
}

type scopedCache struct {
	inner  Cache
	prefix string
}

func (c scopedCache) Get(ctx context.Context, key string) ([]hex.Direction, bool, error) {
	return c.inner.Get(ctx, c.prefix+key)
}

func (c scopedCache) Put(ctx context.Context, key string, route []hex.Direction) error {
	return c.inner.Put(ctx, c.prefix+key, route)
}

func (c scopedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, c.prefix+key)
}

// Encode renders a route as a string of direction digits.
func Encode(route []hex.Direction) string {
	var b strings.Builder
	b.Grow(len(route))
	for _, d := range route {
		b.WriteByte('0' + byte(d.Index()))
	}
	return b.String()
}

// Decode parses a string written by Encode.
func Decode(s string) ([]hex.Direction, error) {
	route := make([]hex.Direction, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c >= '0'+hex.DirectionCount {
			return nil, fmt.Errorf("%w: %q at %d", ErrCorruptRoute, c, i)
		}
		route[i] = hex.Direction(c - '0')
	}
	return route, nil
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu     sync.RWMutex
	routes map[string]string
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{routes: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]hex.Direction, bool, error) {
	c.mu.RLock()
	s, ok := c.routes[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	route, err := Decode(s)
	if err != nil {
		return nil, false, err
	}
	return route, true, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, route []hex.Direction) error {
	c.mu.Lock()
	c.routes[key] = Encode(route)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.routes, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached routes.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}
