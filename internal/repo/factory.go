package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Factory struct {
	db  *bun.DB
	sel selector.S[model.Factory]
}

func NewFactory(db *bun.DB) *Factory {
	return &Factory{
		db:  db,
		sel: selector.New[model.Factory](db),
	}
}

func (r *Factory) ListFactories(ctx context.Context) ([]*model.Factory, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("f.name ASC")
	})
}
