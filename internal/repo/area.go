package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Area struct {
	db  *bun.DB
	sel selector.S[model.Area]
}

func NewArea(db *bun.DB) *Area {
	return &Area{
		db:  db,
		sel: selector.New[model.Area](db),
	}
}

func (r *Area) ListAreas(ctx context.Context) ([]*model.Area, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("ar.section ASC", "ar.index ASC")
	})
}
