package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type LineBalance struct {
	db  *bun.DB
	sel selector.S[model.LineBalance]
}

func NewLineBalance(db *bun.DB) *LineBalance {
	return &LineBalance{
		db:  db,
		sel: selector.New[model.LineBalance](db),
	}
}

// FindStudy looks a study up by its natural key through db.
func (r *LineBalance) FindStudy(ctx context.Context, db bun.IDB, week int, layoutID string) (*model.LineBalance, error) {
	return r.sel.On(db).SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("lb.week = ?", week).
			Where("lb.layout_id = ?", layoutID)
	})
}

func (r *LineBalance) GetStudyByID(ctx context.Context, id string) (*model.LineBalance, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Layout").Where("lb.id = ?", id)
	})
}

// GetStudyGraph loads everything a reconciled view needs: the layout with
// its stations, every take with its work plan, and every record with its
// station, operation and area.
func (r *LineBalance) GetStudyGraph(ctx context.Context, id string) (*model.LineBalance, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Layout").
			Relation("Layout.Line").
			Relation("Layout.Line.Factory").
			Relation("Layout.User").
			Relation("Layout.Stations", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Order("st.index ASC")
			}).
			Relation("Layout.Stations.Operation").
			Relation("Layout.Stations.Area").
			Relation("Takes", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Order("tk.created_at ASC", "tk.id ASC")
			}).
			Relation("Takes.WorkPlan").
			Relation("Takes.WorkPlan.Platform").
			Relation("Takes.Records").
			Relation("Takes.Records.Station").
			Relation("Takes.Records.Station.Operation").
			Relation("Takes.Records.Station.Area").
			Where("lb.id = ?", id)
	})
}

// ListStudiesByWeek returns the studies of an ISO week with their layout,
// line and take count.
func (r *LineBalance) ListStudiesByWeek(ctx context.Context, week int) ([]*model.LineBalance, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			ColumnExpr("lb.*").
			ColumnExpr("(SELECT COUNT(*) FROM ct_cycle_time_takes AS tk WHERE tk.line_balance_id = lb.id) AS take_count").
			Relation("Layout").
			Relation("Layout.Line").
			Where("lb.week = ?", week).
			Order("lb.created_at ASC")
	})
}

func (r *LineBalance) CreateStudy(ctx context.Context, db bun.IDB, study *model.LineBalance) error {
	_, err := db.NewInsert().
		Model(study).
		Exec(ctx)
	return translate(err, "line balance")
}

// DeleteStudy removes the records and takes of a study, then the study.
func (r *LineBalance) DeleteStudy(ctx context.Context, db bun.IDB, id string) error {
	takes := db.NewSelect().
		Model((*model.Take)(nil)).
		Column("tk.id").
		Where("tk.line_balance_id = ?", id)

	if _, err := db.NewDelete().
		Model((*model.CycleTimeRecord)(nil)).
		Where("take_id IN (?)", takes).
		Exec(ctx); err != nil {
		return translate(err, "cycle time record")
	}

	if _, err := db.NewDelete().
		Model((*model.Take)(nil)).
		Where("line_balance_id = ?", id).
		Exec(ctx); err != nil {
		return translate(err, "take")
	}

	res, err := db.NewDelete().
		Model((*model.LineBalance)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return mustAffect(res, err, "line balance")
}
