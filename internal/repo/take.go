package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Take struct {
	db  *bun.DB
	sel selector.S[model.Take]
}

func NewTake(db *bun.DB) *Take {
	return &Take{
		db:  db,
		sel: selector.New[model.Take](db),
	}
}

func (r *Take) GetTakeByID(ctx context.Context, id string) (*model.Take, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("tk.id = ?", id)
	})
}

func (r *Take) CreateTake(ctx context.Context, db bun.IDB, take *model.Take) error {
	_, err := db.NewInsert().
		Model(take).
		Exec(ctx)
	return translate(err, "take")
}

// DeleteTake removes a take and its records. Sibling takes are untouched.
func (r *Take) DeleteTake(ctx context.Context, db bun.IDB, id string) error {
	if _, err := db.NewDelete().
		Model((*model.CycleTimeRecord)(nil)).
		Where("take_id = ?", id).
		Exec(ctx); err != nil {
		return translate(err, "cycle time record")
	}

	res, err := db.NewDelete().
		Model((*model.Take)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return mustAffect(res, err, "take")
}
