package service

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/model"
)

// The interfaces below are what the services need from storage and
// infrastructure. The repo and infra packages satisfy them in production;
// tests substitute in-memory fakes.

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error
}

type LayoutStore interface {
	GetActiveLayoutByLine(ctx context.Context, lineID string) (*model.Layout, error)
	GetLayoutByID(ctx context.Context, id string) (*model.Layout, error)
	ListLayouts(ctx context.Context) ([]*model.Layout, error)
	LatestVersion(ctx context.Context, db bun.IDB, lineID string) (int, error)
	DeactivateLayoutsOfLine(ctx context.Context, db bun.IDB, lineID string) error
	CreateLayout(ctx context.Context, db bun.IDB, layout *model.Layout) error
}

type StationStore interface {
	ListStationsByLayout(ctx context.Context, db bun.IDB, layoutID string) ([]*model.Station, error)
	CreateStations(ctx context.Context, db bun.IDB, stations []*model.Station) error
	UpdateStationPlacement(ctx context.Context, db bun.IDB, stations []*model.Station) error
	DeleteStations(ctx context.Context, db bun.IDB, ids []string) error
}

type WorkPlanStore interface {
	GetWorkPlanByID(ctx context.Context, id string) (*model.WorkPlan, error)
	GetWorkPlan(ctx context.Context, lineID, strDate string) (*model.WorkPlan, error)
	GetLatestWorkPlanByLine(ctx context.Context, lineID string) (*model.WorkPlan, error)
	ListWorkPlansByDate(ctx context.Context, strDate string) ([]*model.WorkPlan, error)
}

type StudyStore interface {
	FindStudy(ctx context.Context, db bun.IDB, week int, layoutID string) (*model.LineBalance, error)
	GetStudyByID(ctx context.Context, id string) (*model.LineBalance, error)
	GetStudyGraph(ctx context.Context, id string) (*model.LineBalance, error)
	ListStudiesByWeek(ctx context.Context, week int) ([]*model.LineBalance, error)
	CreateStudy(ctx context.Context, db bun.IDB, study *model.LineBalance) error
	DeleteStudy(ctx context.Context, db bun.IDB, id string) error
}

type TakeStore interface {
	GetTakeByID(ctx context.Context, id string) (*model.Take, error)
	CreateTake(ctx context.Context, db bun.IDB, take *model.Take) error
	DeleteTake(ctx context.Context, db bun.IDB, id string) error
}

type RecordStore interface {
	CreateRecords(ctx context.Context, db bun.IDB, records []*model.CycleTimeRecord) error
	UpdateCycleTime(ctx context.Context, db bun.IDB, id string, samples []float64) error
	GetStudyIDOfRecord(ctx context.Context, id string) (string, error)
}

type StudyViewCache interface {
	GetSet(ctx context.Context, key string, valueFunc func() (*model.ReconciledStudyView, error), expire time.Duration) (*model.ReconciledStudyView, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// Locker hands out exclusive, expiring locks. The returned function releases
// the lock.
type Locker interface {
	Lock(ctx context.Context, key string, expiry time.Duration) (func(), error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *model.LineBalanceEvent)
}
