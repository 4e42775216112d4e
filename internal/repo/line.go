package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Line struct {
	db  *bun.DB
	sel selector.S[model.Line]
}

func NewLine(db *bun.DB) *Line {
	return &Line{
		db:  db,
		sel: selector.New[model.Line](db),
	}
}

func (r *Line) GetLineByID(ctx context.Context, id string) (*model.Line, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Factory").Where("ln.id = ?", id)
	})
}

func (r *Line) ListActiveLines(ctx context.Context) ([]*model.Line, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("ln.is_active = TRUE").Order("ln.name ASC")
	})
}
