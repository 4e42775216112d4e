package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Operation struct {
	db  *bun.DB
	sel selector.S[model.Operation]
}

func NewOperation(db *bun.DB) *Operation {
	return &Operation{
		db:  db,
		sel: selector.New[model.Operation](db),
	}
}

func (r *Operation) ListOperations(ctx context.Context) ([]*model.Operation, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("op.label ASC", "op.name ASC")
	})
}
