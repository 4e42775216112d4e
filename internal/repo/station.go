package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type Station struct {
	db  *bun.DB
	sel selector.S[model.Station]
}

func NewStation(db *bun.DB) *Station {
	return &Station{
		db:  db,
		sel: selector.New[model.Station](db),
	}
}

// ListStationsByLayout reads through db so a caller holding a transaction
// sees its own writes.
func (r *Station) ListStationsByLayout(ctx context.Context, db bun.IDB, layoutID string) ([]*model.Station, error) {
	return r.sel.On(db).SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Relation("Operation").
			Relation("Area").
			Where("st.layout_id = ?", layoutID).
			Order("st.index ASC")
	})
}

func (r *Station) CreateStations(ctx context.Context, db bun.IDB, stations []*model.Station) error {
	if len(stations) == 0 {
		return nil
	}
	_, err := db.NewInsert().
		Model(&stations).
		Exec(ctx)
	return translate(err, "station")
}

// UpdateStationPlacement writes the index and area of each station.
func (r *Station) UpdateStationPlacement(ctx context.Context, db bun.IDB, stations []*model.Station) error {
	for _, s := range stations {
		res, err := db.NewUpdate().
			Model(s).
			Column("index", "area_id").
			WherePK().
			Exec(ctx)
		if err := mustAffect(res, err, "station"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Station) DeleteStations(ctx context.Context, db bun.IDB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.NewDelete().
		Model((*model.Station)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return translate(err, "station")
}
