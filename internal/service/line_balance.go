package service

import (
	"context"
	"strconv"
	"time"

	"github.com/ahmetb/go-linq/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/cache"
	"ietool.dev/backend-next/internal/pkg/ident"
	"ietool.dev/backend-next/internal/pkg/observability"
	"ietool.dev/backend-next/internal/repo"
	"ietool.dev/backend-next/internal/util/linebalance"
)

type LineBalance struct {
	Config    *appconfig.Config
	Tx        Transactor
	Layouts   LayoutStore
	WorkPlans WorkPlanStore
	Studies   StudyStore
	Takes     TakeStore
	Records   RecordStore
	Views     StudyViewCache
	Locker    Locker
	Events    EventPublisher
	Targets   *TargetCheck
}

type LineBalanceDeps struct {
	fx.In

	Config    *appconfig.Config
	Tx        *repo.Tx
	Layouts   *repo.Layout
	WorkPlans *repo.WorkPlan
	Studies   *repo.LineBalance
	Takes     *repo.Take
	Records   *repo.CycleTimeRecord
	Views     *cache.Set[model.ReconciledStudyView]
	Locker    *RedSyncLocker
	Events    *Events
	Targets   *TargetCheck
}

func NewLineBalance(deps LineBalanceDeps) *LineBalance {
	return &LineBalance{
		Config:    deps.Config,
		Tx:        deps.Tx,
		Layouts:   deps.Layouts,
		WorkPlans: deps.WorkPlans,
		Studies:   deps.Studies,
		Takes:     deps.Takes,
		Records:   deps.Records,
		Views:     deps.Views,
		Locker:    deps.Locker,
		Events:    deps.Events,
		Targets:   deps.Targets,
	}
}

// CreateStudy opens the line balance study of the ISO week of strDate for the
// active layout of lineID. The study, its baseline take and one placeholder
// record per station are written in one transaction.
func (s *LineBalance) CreateStudy(ctx context.Context, strDate, lineID, userID string) (string, error) {
	week, err := linebalance.ISOWeek(strDate)
	if err != nil {
		return "", err
	}

	layout, err := s.Layouts.GetActiveLayoutByLine(ctx, lineID)
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrNotFound.Msg("no active layout for line %s", lineID)
		}
		return "", err
	}

	workPlan, err := s.WorkPlans.GetWorkPlan(ctx, lineID, strDate)
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrNotFound.Msg("no work plan for line %s on %s", lineID, strDate)
		}
		return "", err
	}

	unlock, err := s.Locker.Lock(ctx, constant.StudyCreationMutexPrefix+strconv.Itoa(week)+":"+layout.ID, s.Config.StudyCreationLockExpiry)
	if err != nil {
		return "", err
	}
	defer unlock()

	now := time.Now()
	study := &model.LineBalance{
		ID:        ident.NewAt(now),
		StrDate:   strDate,
		Week:      week,
		UserID:    userID,
		LayoutID:  layout.ID,
		CreatedAt: now,
	}
	take := &model.Take{
		ID:            ident.NewAt(now),
		WorkPlanID:    workPlan.ID,
		LineBalanceID: study.ID,
		UserID:        userID,
		CreatedAt:     now,
	}
	records := placeholderRecords(take, lo.Map(layout.Stations, func(st *model.Station, _ int) string {
		return st.ID
	}))

	err = s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		existing, err := s.Studies.FindStudy(ctx, db, week, layout.ID)
		if err == nil {
			return apperr.ErrConflict.Msg("line balance %s already exists for week %d of layout %s", existing.ID, week, layout.ID)
		} else if !apperr.Is(err, apperr.ErrNotFound) {
			return err
		}

		if err := s.Studies.CreateStudy(ctx, db, study); err != nil {
			return err
		}
		if err := s.Takes.CreateTake(ctx, db, take); err != nil {
			return err
		}
		return s.Records.CreateRecords(ctx, db, records)
	})
	if err != nil {
		return "", err
	}

	observability.LineBalanceWrites.WithLabelValues("create_study").Inc()
	log.Info().
		Str("evt.name", "linebalance.study.created").
		Str("studyId", study.ID).
		Str("layoutId", layout.ID).
		Int("week", week).
		Int("stations", len(records)).
		Msg("line balance study created")
	s.Events.Publish(ctx, constant.LineBalanceSubjectStudyCreated, &model.LineBalanceEvent{
		StudyID: study.ID,
		TakeID:  take.ID,
		UserID:  userID,
		Week:    week,
		At:      now,
	})

	return study.ID, nil
}

// CreateTake records a new measurement pass over stationIDs, bound to the
// latest work plan of the study's line.
func (s *LineBalance) CreateTake(ctx context.Context, studyID string, stationIDs []string, userID string) (string, error) {
	stationIDs = lo.Uniq(stationIDs)
	if len(stationIDs) == 0 {
		return "", apperr.ErrInvalidReq.Msg("a take needs at least one station")
	}

	study, err := s.Studies.GetStudyByID(ctx, studyID)
	if err != nil {
		return "", err
	}

	layout, err := s.Layouts.GetLayoutByID(ctx, study.LayoutID)
	if err != nil {
		return "", err
	}
	known := lo.SliceToMap(layout.Stations, func(st *model.Station) (string, struct{}) {
		return st.ID, struct{}{}
	})
	unknown := lo.Filter(stationIDs, func(id string, _ int) bool {
		_, ok := known[id]
		return !ok
	})
	if len(unknown) > 0 {
		return "", apperr.ErrInvalidReq.
			Msg("stations do not belong to layout %s", layout.ID).
			WithExtras(apperr.Extras{"stationIds": unknown})
	}

	workPlan, err := s.WorkPlans.GetLatestWorkPlanByLine(ctx, layout.LineID)
	if err != nil {
		if apperr.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrNotFound.Msg("no work plan for line %s", layout.LineID)
		}
		return "", err
	}

	now := time.Now()
	take := &model.Take{
		ID:            ident.NewAt(now),
		WorkPlanID:    workPlan.ID,
		LineBalanceID: study.ID,
		UserID:        userID,
		CreatedAt:     now,
	}
	records := placeholderRecords(take, stationIDs)

	err = s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		if err := s.Takes.CreateTake(ctx, db, take); err != nil {
			return err
		}
		return s.Records.CreateRecords(ctx, db, records)
	})
	if err != nil {
		return "", err
	}

	s.afterWrite(ctx, "create_take", constant.LineBalanceSubjectTakeCreated, &model.LineBalanceEvent{
		StudyID: study.ID,
		TakeID:  take.ID,
		UserID:  userID,
		At:      now,
	})
	return take.ID, nil
}

// UpdateCycleTime replaces the samples of one record.
func (s *LineBalance) UpdateCycleTime(ctx context.Context, recordID string, samples []float64, userID string) error {
	studyID, err := s.Records.GetStudyIDOfRecord(ctx, recordID)
	if err != nil {
		return err
	}

	err = s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		return s.Records.UpdateCycleTime(ctx, db, recordID, samples)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, "update_cycle_time", constant.LineBalanceSubjectCycleTimeUpdated, &model.LineBalanceEvent{
		StudyID:  studyID,
		RecordID: recordID,
		UserID:   userID,
		At:       time.Now(),
	})
	return nil
}

func (s *LineBalance) DeleteTake(ctx context.Context, takeID, userID string) error {
	take, err := s.Takes.GetTakeByID(ctx, takeID)
	if err != nil {
		return err
	}

	err = s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		return s.Takes.DeleteTake(ctx, db, takeID)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, "delete_take", constant.LineBalanceSubjectTakeDeleted, &model.LineBalanceEvent{
		StudyID: take.LineBalanceID,
		TakeID:  takeID,
		UserID:  userID,
		At:      time.Now(),
	})
	return nil
}

func (s *LineBalance) DeleteStudy(ctx context.Context, studyID, userID string) error {
	err := s.Tx.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		return s.Studies.DeleteStudy(ctx, db, studyID)
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, "delete_study", constant.LineBalanceSubjectStudyDeleted, &model.LineBalanceEvent{
		StudyID: studyID,
		UserID:  userID,
		At:      time.Now(),
	})
	return nil
}

// afterWrite runs once a write has committed: the cached view is dropped,
// then the write is counted and announced.
func (s *LineBalance) afterWrite(ctx context.Context, op, subject string, event *model.LineBalanceEvent) {
	if err := s.Views.Delete(ctx, event.StudyID); err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "linebalance.view.invalidate_failed").
			Str("studyId", event.StudyID).
			Msg("failed to invalidate cached study view")
	}
	observability.LineBalanceWrites.WithLabelValues(op).Inc()
	log.Info().
		Str("evt.name", "linebalance."+op).
		Str("studyId", event.StudyID).
		Str("takeId", event.TakeID).
		Str("recordId", event.RecordID).
		Msg("line balance updated")
	s.Events.Publish(ctx, subject, event)
}

// GetStudy returns the reconciled view of a study, served from the view cache
// when possible.
func (s *LineBalance) GetStudy(ctx context.Context, studyID string) (*model.ReconciledStudyView, error) {
	view, computed, err := s.Views.GetSet(ctx, studyID, func() (*model.ReconciledStudyView, error) {
		return s.BuildStudyView(ctx, studyID)
	}, s.Config.StudyViewCacheTTL)
	if err != nil {
		return nil, err
	}
	observability.StudyViewCache.WithLabelValues(lo.Ternary(computed, "miss", "hit")).Inc()
	return view, nil
}

// BuildStudyView loads a study graph and reconciles it without the cache.
func (s *LineBalance) BuildStudyView(ctx context.Context, studyID string) (*model.ReconciledStudyView, error) {
	study, err := s.Studies.GetStudyGraph(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if study.Layout == nil {
		return nil, apperr.ErrNotFound.Msg("layout %s of line balance %s not found", study.LayoutID, study.ID)
	}

	timer := prometheus.NewTimer(observability.ReconcileDuration)
	reconciled := linebalance.Reconcile(study.Takes)
	bottlenecks, err := linebalance.SelectBottlenecks(reconciled.Stations)
	timer.ObserveDuration()
	if err != nil {
		return nil, err
	}

	if len(reconciled.Orphans) > 0 {
		log.Warn().
			Str("evt.name", "linebalance.records.orphaned").
			Str("studyId", study.ID).
			Strs("recordIds", reconciled.Orphans).
			Msg("baseline records without a resolvable station were left out")
	}

	view := &model.ReconciledStudyView{
		ID:          study.ID,
		StrDate:     study.StrDate,
		Week:        study.Week,
		UserID:      study.UserID,
		CreatedAt:   study.CreatedAt,
		Layout:      linebalance.LayoutSummaryOf(study.Layout),
		Takes:       linebalance.TakeViewsOf(study.Takes),
		Records:     reconciled.Stations,
		Bottlenecks: bottlenecks,
	}

	if sorted := linebalance.SortTakes(study.Takes); len(sorted) > 0 {
		targets := linebalance.TargetsOf(sorted[len(sorted)-1].WorkPlan)
		view.Targets = &targets
		if err := s.checkTargets(bottlenecks, targets); err != nil {
			return nil, err
		}
	}

	return view, nil
}

func (s *LineBalance) checkTargets(bottlenecks []*model.BottleneckResult, targets model.Targets) error {
	for _, b := range bottlenecks {
		b.TargetCycleTime = targets.TargetCycleTime
		if s.Targets == nil || targets.TargetCycleTime <= 0 {
			continue
		}
		ok, err := s.Targets.Evaluate(TargetCheckEnv{
			Section:         b.Section,
			LastCT:          b.Station.LastCT,
			BaseCT:          b.Station.BaseCT,
			TargetCycleTime: targets.TargetCycleTime,
			TargetUPH:       targets.TargetUPH,
		})
		if err != nil {
			return apperr.Wrap(err, "failed to evaluate target check")
		}
		b.TargetChecked = true
		b.MeetsTarget = ok
	}
	return nil
}

// ListStudiesByWeek returns the studies of an ISO week ordered by line name,
// then creation time.
func (s *LineBalance) ListStudiesByWeek(ctx context.Context, week int) ([]*model.StudySummary, error) {
	if week < 1 || week > 53 {
		return nil, apperr.ErrInvalidReq.Msg("week must be between 1 and 53, got %d", week)
	}

	studies, err := s.Studies.ListStudiesByWeek(ctx, week)
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.StudySummary, 0, len(studies))
	linq.From(studies).
		SelectT(func(lb *model.LineBalance) *model.StudySummary {
			summary := &model.StudySummary{
				ID:        lb.ID,
				StrDate:   lb.StrDate,
				Week:      lb.Week,
				LayoutID:  lb.LayoutID,
				UserID:    lb.UserID,
				TakeCount: lb.TakeCount,
				CreatedAt: lb.CreatedAt,
			}
			if lb.Layout != nil {
				summary.LineID = lb.Layout.LineID
				if lb.Layout.Line != nil {
					summary.LineName = lb.Layout.Line.Name
				}
			}
			return summary
		}).
		OrderByT(func(summary *model.StudySummary) string {
			return summary.LineName
		}).
		ThenByT(func(summary *model.StudySummary) int64 {
			return summary.CreatedAt.UnixNano()
		}).
		ToSlice(&summaries)

	return summaries, nil
}

// ListStudiesByDate lists the studies of the ISO week strDate falls in.
func (s *LineBalance) ListStudiesByDate(ctx context.Context, strDate string) ([]*model.StudySummary, error) {
	week, err := linebalance.ISOWeek(strDate)
	if err != nil {
		return nil, err
	}
	return s.ListStudiesByWeek(ctx, week)
}

func placeholderRecords(take *model.Take, stationIDs []string) []*model.CycleTimeRecord {
	records := make([]*model.CycleTimeRecord, 0, len(stationIDs))
	for _, stationID := range stationIDs {
		records = append(records, &model.CycleTimeRecord{
			ID:        ident.NewAt(take.CreatedAt),
			CycleTime: linebalance.PlaceholderSamples(),
			UserID:    take.UserID,
			TakeID:    take.ID,
			StationID: stationID,
			CreatedAt: take.CreatedAt,
		})
	}
	return records
}
