package repo

import (
	"context"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo/selector"
)

type CycleTimeRecord struct {
	db  *bun.DB
	sel selector.S[model.CycleTimeRecord]
}

func NewCycleTimeRecord(db *bun.DB) *CycleTimeRecord {
	return &CycleTimeRecord{
		db:  db,
		sel: selector.New[model.CycleTimeRecord](db),
	}
}

func (r *CycleTimeRecord) CreateRecords(ctx context.Context, db bun.IDB, records []*model.CycleTimeRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := db.NewInsert().
		Model(&records).
		Exec(ctx)
	return translate(err, "cycle time record")
}

// UpdateCycleTime replaces the samples of a record.
func (r *CycleTimeRecord) UpdateCycleTime(ctx context.Context, db bun.IDB, id string, samples []float64) error {
	res, err := db.NewUpdate().
		Model(&model.CycleTimeRecord{ID: id, CycleTime: samples}).
		Column("cycle_time").
		WherePK().
		Exec(ctx)
	return mustAffect(res, err, "cycle time record")
}

// GetStudyIDOfRecord returns the id of the study owning a record.
func (r *CycleTimeRecord) GetStudyIDOfRecord(ctx context.Context, id string) (string, error) {
	var studyID string
	err := r.db.NewSelect().
		Model((*model.CycleTimeRecord)(nil)).
		ColumnExpr("tk.line_balance_id").
		Join("JOIN ct_cycle_time_takes AS tk ON tk.id = ctr.take_id").
		Where("ctr.id = ?", id).
		Limit(1).
		Scan(ctx, &studyID)
	if err != nil {
		return "", translate(err, "cycle time record")
	}
	return studyID, nil
}
