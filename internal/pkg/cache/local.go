package cache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// Local is an in-process cache for small, rarely changing lookups.
type Local[T any] struct {
	// m serialises misses so valueFunc runs once per key
	m sync.Mutex

	name string
	ttl  time.Duration
	c    *cache.Cache
}

func NewLocal[T any](name string, ttl time.Duration) *Local[T] {
	return &Local[T]{
		name: name,
		ttl:  ttl,
		c:    cache.New(ttl, ttl*2),
	}
}

func (c *Local[T]) Get(key string) (T, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

func (c *Local[T]) Set(key string, value T) {
	c.c.Set(key, value, c.ttl)
}

// GetSet returns the value for key, loading it with valueFunc on a miss.
// Errors are not cached.
func (c *Local[T]) GetSet(key string, valueFunc func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.m.Lock()
	defer c.m.Unlock()
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	value, err := valueFunc()
	if err != nil {
		log.Debug().Err(err).Str("cache", c.name).Str("key", key).Msg("failed to load value")
		return value, err
	}
	c.Set(key, value)
	return value, nil
}

func (c *Local[T]) Delete(key string) {
	c.c.Delete(key)
}

func (c *Local[T]) Flush() {
	c.c.Flush()
}
