package repo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Layout struct {
	db  *bun.DB
	sel selector.S[model.Layout]
}

func NewLayout(db *bun.DB) *Layout {
	return &Layout{
		db:  db,
		sel: selector.New[model.Layout](db),
	}
}

// withGraph loads the line, factory, author and the stations of a layout,
// stations resolved with their operation and area, in one pass.
func withGraph(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Line").
		Relation("Line.Factory").
		Relation("User").
		Relation("Stations", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("st.index ASC")
		}).
		Relation("Stations.Operation").
		Relation("Stations.Area")
}

func (r *Layout) GetActiveLayoutByLine(ctx context.Context, lineID string) (*model.Layout, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return withGraph(q).
			Where("lo.line_id = ?", lineID).
			Where("lo.is_active = TRUE").
			Order("lo.version DESC")
	})
}

func (r *Layout) GetLayoutByID(ctx context.Context, id string) (*model.Layout, error) {
	return r.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return withGraph(q).Where("lo.id = ?", id)
	})
}

// ListLayouts returns every layout with its line and factory, ordered by line
// name and newest version first.
func (r *Layout) ListLayouts(ctx context.Context) ([]*model.Layout, error) {
	return r.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Line").
			Relation("Line.Factory").
			Relation("User").
			Order("line.name ASC", "lo.version DESC")
	})
}

// LatestVersion returns the highest layout version of a line, 0 if the line
// has none.
func (r *Layout) LatestVersion(ctx context.Context, db bun.IDB, lineID string) (int, error) {
	var version sql.NullInt64
	err := db.NewSelect().
		Model((*model.Layout)(nil)).
		ColumnExpr("MAX(lo.version)").
		Where("lo.line_id = ?", lineID).
		Scan(ctx, &version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, translate(err, "layout")
	}
	return int(version.Int64), nil
}

func (r *Layout) DeactivateLayoutsOfLine(ctx context.Context, db bun.IDB, lineID string) error {
	_, err := db.NewUpdate().
		Model((*model.Layout)(nil)).
		Set("is_active = FALSE").
		Set("updated_at = current_timestamp").
		Where("line_id = ?", lineID).
		Where("is_active = TRUE").
		Exec(ctx)
	return translate(err, "layout")
}

func (r *Layout) CreateLayout(ctx context.Context, db bun.IDB, layout *model.Layout) error {
	_, err := db.NewInsert().
		Model(layout).
		Exec(ctx)
	return translate(err, "layout")
}
