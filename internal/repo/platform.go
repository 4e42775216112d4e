package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Platform struct {
	db  *bun.DB
	sel selector.S[model.Platform]
}

func NewPlatform(db *bun.DB) *Platform {
	return &Platform{
		db:  db,
		sel: selector.New[model.Platform](db),
	}
}

func (r *Platform) ListPlatformsInService(ctx context.Context) ([]*model.Platform, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("pf.in_service = TRUE").Order("pf.platform ASC", "pf.sku ASC")
	})
}
