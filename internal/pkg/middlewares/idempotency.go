package middlewares

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/observability"
	"ietool.dev/backend-next/internal/util/rekuest"
)

type IdempotencyConfig struct {
	// Lifetime is how long a stored response is replayed for.
	Lifetime time.Duration

	// KeyHeader is the request header carrying the client chosen key.
	KeyHeader string

	// KeepResponseHeaders lists the response headers stored alongside the body.
	// All headers are stored when empty.
	KeepResponseHeaders []string

	// Storage holds the stored responses.
	Storage fiber.Storage

	RedSync *redsync.Redsync

	// Next skips the middleware when it returns true.
	Next func(c *fiber.Ctx) bool
}

type storedResponse struct {
	StatusCode int               `msgpack:"s"`
	Headers    map[string]string `msgpack:"h"`
	Body       []byte            `msgpack:"b"`
}

type idempotency struct {
	conf *IdempotencyConfig
	keep map[string]struct{}
}

// Idempotency replays the stored response of a successful request when the
// same user sends the same key to the same route again. Concurrent requests
// sharing a key are serialized by a redsync mutex; the loser of the race either
// replays the winner's response or gets a conflict.
func Idempotency(conf *IdempotencyConfig) fiber.Handler {
	m := &idempotency{conf: conf, keep: make(map[string]struct{}, len(conf.KeepResponseHeaders))}
	for _, h := range conf.KeepResponseHeaders {
		m.keep[strings.ToLower(h)] = struct{}{}
	}
	return m.handle
}

func (m *idempotency) handle(c *fiber.Ctx) error {
	if m.conf.Next != nil && m.conf.Next(c) {
		return c.Next()
	}

	raw := c.Get(m.conf.KeyHeader)
	if raw == "" {
		return c.Next()
	}
	if err := rekuest.Validate.Var(raw, "max="+strconv.Itoa(constant.IdempotencyKeyLengthLimit)+",alphanum"); err != nil {
		return apperr.ErrInvalidReq.Msg("invalid idempotency key: at most %d alphanumeric characters are allowed", constant.IdempotencyKeyLengthLimit)
	}

	key := m.scopedKey(c, raw)

	if ok, err := m.replay(c, key); ok {
		return err
	}

	mutex := m.conf.RedSync.NewMutex(constant.IdempotencyMutexPrefix+key,
		redsync.WithExpiry(time.Minute),
		redsync.WithTries(5),
		redsync.WithRetryDelay(250*time.Millisecond),
	)
	if err := mutex.LockContext(c.UserContext()); err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "http.idempotency.lock.failed").
			Str("key", key).
			Msg("idempotency key is held by another request")
		return apperr.ErrConflict.Msg("a request with the same idempotency key is still in flight")
	}
	defer func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Warn().
				Err(err).
				Str("evt.name", "http.idempotency.unlock.failed").
				Str("key", key).
				Msg("failed to release idempotency key")
		}
	}()

	// the key may have been fulfilled while we were waiting for the lock
	if ok, err := m.replay(c, key); ok {
		return err
	}

	if err := c.Next(); err != nil {
		return err
	}

	status := c.Response().StatusCode()
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return nil
	}

	if err := m.save(c, key); err != nil {
		// the handler has already committed; a lost replay record only
		// degrades a retry into a regular request
		log.Error().
			Err(err).
			Str("evt.name", "http.idempotency.save.failed").
			Str("key", key).
			Msg("failed to store idempotent response")
		return nil
	}

	c.Set(constant.IdempotencyHeader, "saved")
	observability.IdempotencyResponses.WithLabelValues("saved").Inc()
	return nil
}

// scopedKey binds the client key to the acting user and the route so that two
// users, or two endpoints, never share a stored response.
func (m *idempotency) scopedKey(c *fiber.Ctx, raw string) string {
	scope := c.Method() + " " + c.Route().Path
	if user := UserFromCtx(c); user != nil {
		scope = user.ID + " " + scope
	}
	return strconv.FormatUint(xxh3.HashString(scope), 36) + ":" + raw
}

func (m *idempotency) replay(c *fiber.Ctx, key string) (bool, error) {
	b, err := m.conf.Storage.Get(key)
	if err != nil || b == nil {
		return false, nil
	}

	var resp storedResponse
	if err := msgpack.Unmarshal(b, &resp); err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "http.idempotency.corrupted").
			Str("key", key).
			Msg("ignoring undecodable idempotent response")
		return false, nil
	}

	log.Debug().
		Str("evt.name", "http.idempotency.hit").
		Str("key", key).
		Msg("replaying idempotent response")
	observability.IdempotencyResponses.WithLabelValues("hit").Inc()

	c.Status(resp.StatusCode)
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	c.Set(constant.IdempotencyHeader, "hit")
	if len(resp.Body) == 0 {
		return true, nil
	}
	return true, c.Send(resp.Body)
}

func (m *idempotency) save(c *fiber.Ctx, key string) error {
	resp := storedResponse{
		StatusCode: c.Response().StatusCode(),
		Headers:    make(map[string]string),
		Body:       append([]byte(nil), c.Response().Body()...),
	}
	c.Response().Header.VisitAll(func(k, v []byte) {
		name := string(k)
		if len(m.keep) > 0 {
			if _, ok := m.keep[strings.ToLower(name)]; !ok {
				return
			}
		}
		resp.Headers[name] = string(v)
	})

	b, err := msgpack.Marshal(resp)
	if err != nil {
		return err
	}
	return m.conf.Storage.Set(key, b, m.conf.Lifetime)
}
