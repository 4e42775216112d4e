package service

import (
	"context"
	"time"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/cache"
	"ietool.dev/backend-next/internal/repo"
)

const userCacheTTL = time.Minute

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type User struct {
	Users UserStore

	cache *cache.Local[*model.User]
}

func NewUser(users *repo.User) *User {
	return &User{
		Users: users,
		cache: cache.NewLocal[*model.User]("users", userCacheTTL),
	}
}

// GetUserByID resolves the acting user of a request. Lookups are cached for
// a minute so suspensions take effect within that window.
func (s *User) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if s.cache == nil {
		return s.Users.GetUserByID(ctx, id)
	}
	return s.cache.GetSet(id, func() (*model.User, error) {
		return s.Users.GetUserByID(ctx, id)
	})
}
