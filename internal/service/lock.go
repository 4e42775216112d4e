package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"ietool.dev/backend-next/internal/pkg/apperr"
)

type RedSyncLocker struct {
	RS *redsync.Redsync
}

func NewRedSyncLocker(rs *redsync.Redsync) *RedSyncLocker {
	return &RedSyncLocker{RS: rs}
}

// Lock fails with ErrConflict when the key stays held by someone else for
// the whole retry window.
func (l *RedSyncLocker) Lock(ctx context.Context, key string, expiry time.Duration) (func(), error) {
	mutex := l.RS.NewMutex(key,
		redsync.WithExpiry(expiry),
		redsync.WithTries(8),
		redsync.WithRetryDelay(time.Millisecond*125),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if errors.Is(err, redsync.ErrFailed) || strings.HasPrefix(err.Error(), "lock already taken") {
			return nil, apperr.ErrConflict.Msg("another request holds %s", key)
		}
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	return func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Warn().
				Err(err).
				Str("evt.name", "lock.release_failed").
				Str("key", key).
				Msg("failed to release lock; it will expire on its own")
		}
	}, nil
}
