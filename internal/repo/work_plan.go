package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type WorkPlan struct {
	db  *bun.DB
	sel selector.S[model.WorkPlan]
}

func NewWorkPlan(db *bun.DB) *WorkPlan {
	return &WorkPlan{
		db:  db,
		sel: selector.New[model.WorkPlan](db),
	}
}

func (r *WorkPlan) GetWorkPlanByID(ctx context.Context, id string) (*model.WorkPlan, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Platform").Where("wp.id = ?", id)
	})
}

// GetWorkPlan returns the plan of a line for a date. When several were
// entered for the same date the latest one wins.
func (r *WorkPlan) GetWorkPlan(ctx context.Context, lineID, strDate string) (*model.WorkPlan, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Platform").
			Where("wp.line_id = ?", lineID).
			Where("wp.str_date = ?", strDate).
			Order("wp.created_at DESC")
	})
}

// GetLatestWorkPlanByLine returns the most recent plan of a line.
func (r *WorkPlan) GetLatestWorkPlanByLine(ctx context.Context, lineID string) (*model.WorkPlan, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Platform").
			Where("wp.line_id = ?", lineID).
			Order("wp.str_date DESC", "wp.created_at DESC")
	})
}

func (r *WorkPlan) ListWorkPlansByDate(ctx context.Context, strDate string) ([]*model.WorkPlan, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Platform").
			Relation("Line").
			Where("wp.str_date = ?", strDate).
			Order("line.name ASC", "wp.start_hour ASC")
	})
}
