package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gopkg.in/guregu/null.v3"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/cache"
	"ietool.dev/backend-next/internal/pkg/ident"
	"ietool.dev/backend-next/internal/repo"
	"ietool.dev/backend-next/internal/util/linebalance"
)

const catalogCacheTTL = time.Minute * 5

type OperationStore interface {
	ListOperations(ctx context.Context) ([]*model.Operation, error)
}

type AreaStore interface {
	ListAreas(ctx context.Context) ([]*model.Area, error)
}

type LineStore interface {
	GetLineByID(ctx context.Context, id string) (*model.Line, error)
	ListActiveLines(ctx context.Context) ([]*model.Line, error)
}

type Layout struct {
	Tx         Transactor
	Layouts    LayoutStore
	Stations   StationStore
	Lines      LineStore
	Operations OperationStore
	Areas      AreaStore
	Views      StudyViewCache

	catalogOnce sync.Once
	catalog     *cache.Local[*model.OperationsAndAreas]
}

type LayoutDeps struct {
	fx.In

	Tx         *repo.Tx
	Layouts    *repo.Layout
	Stations   *repo.Station
	Lines      *repo.Line
	Operations *repo.Operation
	Areas      *repo.Area
	Views      *cache.Set[model.ReconciledStudyView]
}

func NewLayout(deps LayoutDeps) *Layout {
	return &Layout{
		Tx:         deps.Tx,
		Layouts:    deps.Layouts,
		Stations:   deps.Stations,
		Lines:      deps.Lines,
		Operations: deps.Operations,
		Areas:      deps.Areas,
		Views:      deps.Views,
	}
}

func (s *Layout) GetLayout(ctx context.Context, id string) (*model.LayoutSummary, error) {
	layout, err := s.Layouts.GetLayoutByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return linebalance.LayoutSummaryOf(layout), nil
}

func (s *Layout) GetActiveLayoutByLine(ctx context.Context, lineID string) (*model.LayoutSummary, error) {
	layout, err := s.Layouts.GetActiveLayoutByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	return linebalance.LayoutSummaryOf(layout), nil
}

// ListLayouts returns layout summaries without their stations.
func (s *Layout) ListLayouts(ctx context.Context) ([]*model.LayoutSummary, error) {
	layouts, err := s.Layouts.ListLayouts(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*model.LayoutSummary, 0, len(layouts))
	for _, l := range layouts {
		summaries = append(summaries, linebalance.LayoutSummaryOf(l))
	}
	return summaries, nil
}

func (s *Layout) ListStations(ctx context.Context, layoutID string) ([]*model.StationView, error) {
	if _, err := s.Layouts.GetLayoutByID(ctx, layoutID); err != nil {
		return nil, err
	}
	stations, err := s.Stations.ListStationsByLayout(ctx, nil, layoutID)
	if err != nil {
		return nil, err
	}
	views := make([]*model.StationView, 0, len(stations))
	for _, st := range linebalance.SortStations(stations) {
		views = append(views, linebalance.StationViewOf(st))
	}
	return views, nil
}

// CreateLayout starts a new layout version for a line. It becomes the only
// active layout of the line and starts with a copy of the stations of the
// previously active one.
func (s *Layout) CreateLayout(ctx context.Context, lineID, userID string) (string, error) {
	if _, err := s.Lines.GetLineByID(ctx, lineID); err != nil {
		return "", err
	}

	var previous []*model.Station
	if active, err := s.Layouts.GetActiveLayoutByLine(ctx, lineID); err == nil {
		previous = active.Stations
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	now := time.Now()
	layout := &model.Layout{
		ID:        ident.NewAt(now),
		LineID:    lineID,
		UserID:    userID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		version, err := s.Layouts.LatestVersion(ctx, db, lineID)
		if err != nil {
			return err
		}
		layout.Version = version + 1

		if err := s.Layouts.DeactivateLayoutsOfLine(ctx, db, lineID); err != nil {
			return err
		}
		if err := s.Layouts.CreateLayout(ctx, db, layout); err != nil {
			return err
		}

		stations := make([]*model.Station, 0, len(previous))
		for _, st := range previous {
			stations = append(stations, &model.Station{
				ID:               ident.NewAt(now),
				Index:            st.Index,
				OperationID:      st.OperationID,
				AreaID:           st.AreaID,
				StationClusterID: st.StationClusterID,
				MachineID:        st.MachineID,
				LayoutID:         null.StringFrom(layout.ID),
			})
		}
		return s.Stations.CreateStations(ctx, db, stations)
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("evt.name", "layout.created").
		Str("layoutId", layout.ID).
		Str("lineId", lineID).
		Int("version", layout.Version).
		Int("stations", len(previous)).
		Msg("layout version created")
	return layout.ID, nil
}

type StationUpdateResult struct {
	Updated int `json:"updated"`
	Created int `json:"created"`
	Deleted int `json:"deleted"`
}

// UpdateStations reconciles the stations of a layout with desired. Repeating
// the same call writes nothing.
func (s *Layout) UpdateStations(ctx context.Context, layoutID string, desired []linebalance.DesiredStation) (*StationUpdateResult, error) {
	if _, err := s.Layouts.GetLayoutByID(ctx, layoutID); err != nil {
		return nil, err
	}

	result := &StationUpdateResult{}
	err := s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		current, err := s.Stations.ListStationsByLayout(ctx, db, layoutID)
		if err != nil {
			return err
		}

		plan, err := linebalance.PlanStationUpdate(current, desired)
		if err != nil {
			return err
		}
		if plan.Empty() {
			return nil
		}

		if err := s.Stations.UpdateStationPlacement(ctx, db, plan.Updates); err != nil {
			return err
		}

		now := time.Now()
		created := make([]*model.Station, 0, len(plan.Creates))
		for _, d := range plan.Creates {
			created = append(created, &model.Station{
				ID:          ident.NewAt(now),
				Index:       d.Index,
				OperationID: null.StringFrom(d.OperationID),
				AreaID:      null.NewString(d.AreaID, d.AreaID != ""),
				LayoutID:    null.StringFrom(layoutID),
			})
		}
		if err := s.Stations.CreateStations(ctx, db, created); err != nil {
			return err
		}
		if err := s.Stations.DeleteStations(ctx, db, plan.Deletes); err != nil {
			return err
		}

		result.Updated = len(plan.Updates)
		result.Created = len(plan.Creates)
		result.Deleted = len(plan.Deletes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Updated+result.Created+result.Deleted > 0 {
		// station placement feeds every reconciled view of the layout
		if err := s.Views.Clear(ctx); err != nil {
			log.Warn().Err(err).Str("evt.name", "layout.views.clear_failed").Msg("failed to clear cached study views")
		}
		log.Info().
			Str("evt.name", "layout.stations.updated").
			Str("layoutId", layoutID).
			Int("updated", result.Updated).
			Int("created", result.Created).
			Int("deleted", result.Deleted).
			Msg("layout stations reconciled")
	}
	return result, nil
}

// ListOperationsAndAreas returns the catalogue stations are built from.
func (s *Layout) ListOperationsAndAreas(ctx context.Context) (*model.OperationsAndAreas, error) {
	s.catalogOnce.Do(func() {
		s.catalog = cache.NewLocal[*model.OperationsAndAreas]("catalog", catalogCacheTTL)
	})
	return s.catalog.GetSet("operations-areas", func() (*model.OperationsAndAreas, error) {
		catalog := &model.OperationsAndAreas{}
		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() (err error) {
			catalog.Operations, err = s.Operations.ListOperations(ctx)
			return err
		})
		eg.Go(func() (err error) {
			catalog.Areas, err = s.Areas.ListAreas(ctx)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return catalog, nil
	})
}
