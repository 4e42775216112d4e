package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type User struct {
	db  *bun.DB
	sel selector.S[model.User]
}

func NewUser(db *bun.DB) *User {
	return &User{
		db:  db,
		sel: selector.New[model.User](db),
	}
}

func (r *User) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("u.id = ?", id)
	})
}
