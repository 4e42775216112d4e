package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrNotFound = errors.New("cache: key not found")

// versionTTL outlives any computation a GetSet may run between reading a
// version and storing against it.
const versionTTL = 24 * time.Hour

// storeIfUnchanged sets KEYS[1] only while the key version (KEYS[2]) and the
// set generation (KEYS[3]) still equal the ones read before computing.
var storeIfUnchanged = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or '0'
local g = redis.call('GET', KEYS[3]) or '0'
if v ~= ARGV[1] or g ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[4]) > 0 then
	redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
else
	redis.call('SET', KEYS[1], ARGV[3])
end
return 1
`)

// Set is a msgpack-encoded view cache shared by every replica through redis.
//
// Every Delete bumps a per-key version and every Clear bumps the set
// generation, so a value computed before an invalidation is never stored
// after it.
type Set[T any] struct {
	client *redis.Client
	prefix string
	base   string
}

func NewSet[T any](client *redis.Client, prefix string) *Set[T] {
	return &Set[T]{
		client: client,
		prefix: prefix + ":",
		base:   prefix,
	}
}

func (c *Set[T]) key(key string) string {
	return c.prefix + key
}

// versionKey and generationKey stay outside prefix so Clear never scans them.
func (c *Set[T]) versionKey(key string) string {
	return c.base + "-version:" + key
}

func (c *Set[T]) generationKey() string {
	return c.base + "-generation"
}

// stamp reads the current version of key and the set generation.
func (c *Set[T]) stamp(ctx context.Context, key string) (version, generation string, err error) {
	vals, err := c.client.MGet(ctx, c.versionKey(key), c.generationKey()).Result()
	if err != nil {
		return "", "", err
	}
	str := func(v any) string {
		if s, ok := v.(string); ok {
			return s
		}
		return "0"
	}
	return str(vals[0]), str(vals[1]), nil
}

// Get returns ErrNotFound when key is absent.
func (c *Set[T]) Get(ctx context.Context, key string) (*T, error) {
	key = c.key(key)
	resp, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("failed to get value from redis")
		return nil, err
	}
	var dest T
	if err := msgpack.Unmarshal(resp, &dest); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal value from msgpack from redis")
		return nil, err
	}
	return &dest, nil
}

func (c *Set[T]) Set(ctx context.Context, key string, value *T, expire time.Duration) error {
	key = c.key(key)
	if l := log.Trace(); l.Enabled() {
		l.Str("key", key).Msg("setting value to redis")
	}
	b, err := msgpack.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value with msgpack")
		return err
	}
	if err := c.client.Set(ctx, key, b, expire).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set value to redis")
		return err
	}
	return nil
}

// GetSet returns the cached value of key, computing and storing it with
// valueFunc on a miss. The bool reports whether valueFunc ran. Redis being
// unavailable degrades to calling valueFunc.
//
// The computed value is stored only if key was not deleted and the set was
// not cleared while valueFunc ran; otherwise it is returned to the caller
// but left uncached.
func (c *Set[T]) GetSet(ctx context.Context, key string, valueFunc func() (*T, error), expire time.Duration) (*T, bool, error) {
	cached, err := c.Get(ctx, key)
	if err == nil {
		return cached, false, nil
	}

	version, generation, stampErr := c.stamp(ctx, key)

	value, err := valueFunc()
	if err != nil {
		return nil, true, err
	}

	if stampErr != nil {
		log.Warn().Err(stampErr).Str("key", key).Msg("serving uncached value")
		return value, true, nil
	}
	stored, err := c.storeIfUnchanged(ctx, key, value, version, generation, expire)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("serving uncached value")
	} else if !stored {
		log.Debug().Str("key", key).Msg("value invalidated while computing, not caching")
	}
	return value, true, nil
}

func (c *Set[T]) storeIfUnchanged(ctx context.Context, key string, value *T, version, generation string, expire time.Duration) (bool, error) {
	b, err := msgpack.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value with msgpack")
		return false, err
	}
	res, err := storeIfUnchanged.Run(ctx, c.client,
		[]string{c.key(key), c.versionKey(key), c.generationKey()},
		version, generation, b, expire.Milliseconds(),
	).Int()
	if err != nil {
		log.Error().Err(err).Str("key", c.key(key)).Msg("failed to set value to redis")
		return false, err
	}
	return res == 1, nil
}

// Delete removes keys and bumps their versions, so a GetSet already
// computing one of them will not store its result.
func (c *Set[T]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, c.versionKey(k))
			pipe.Expire(ctx, c.versionKey(k), versionTTL)
		}
		pipe.Del(ctx, full...)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Strs("keys", full).Msg("failed to delete value from redis")
		return err
	}
	return nil
}

func (c *Set[T]) Clear(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		log.Error().Err(err).Str("prefix", c.prefix).Msg("failed to bump cache generation")
		return err
	}
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Error().Err(err).Str("prefix", c.prefix).Msg("failed to clear cache")
			return err
		}
	}
	return iter.Err()
}
