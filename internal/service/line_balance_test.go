package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
)

const (
	testLine   = "01h2xcejqtf2nbrexx3vqjhp41"
	testLayout = "01h2xcejqtf2nbrexx3vqjhp42"
	testUser   = "01h2xcejqtf2nbrexx3vqjhp43"
	testPlan   = "01h2xcejqtf2nbrexx3vqjhp44"
)

type lineBalanceFixture struct {
	store   *memStore
	views   *fakeViews
	locker  *fakeLocker
	events  *fakeEvents
	service *LineBalance
}

// newLineBalanceFixture seeds one active layout of three stations: two in
// section SMT and one in section FATP, and a work plan rated at 60 UPH.
func newLineBalanceFixture(t *testing.T) *lineBalanceFixture {
	t.Helper()

	store := newMemStore()
	smt := &model.Area{ID: "area-smt", Index: null.IntFrom(1), Name: "SMT top", Section: null.StringFrom("SMT")}
	fatp := &model.Area{ID: "area-fatp", Index: null.IntFrom(2), Name: "Final assembly", Section: null.StringFrom("FATP")}
	store.lines[testLine] = &model.Line{ID: testLine, Name: "Line A", IsActive: true, FactoryID: "factory-1"}
	store.layouts[testLayout] = &model.Layout{ID: testLayout, Version: 1, LineID: testLine, IsActive: true}
	for i, area := range []*model.Area{smt, smt, fatp} {
		id := []string{"station-1", "station-2", "station-3"}[i]
		store.stations[id] = &model.Station{
			ID:          id,
			Index:       i + 1,
			OperationID: null.StringFrom("op-" + id),
			AreaID:      null.StringFrom(area.ID),
			LayoutID:    null.StringFrom(testLayout),
			Operation:   &model.Operation{ID: "op-" + id, Name: "Operation " + id},
			Area:        area,
		}
	}
	store.workPlans[testPlan] = &model.WorkPlan{
		ID:           testPlan,
		LineID:       testLine,
		StrDate:      "2023-06-14",
		PlannedHours: 10,
		TargetOEE:    0.85,
		CreatedAt:    time.Date(2023, 6, 13, 8, 0, 0, 0, time.UTC),
		Platform:     &model.Platform{ID: "platform-1", UPH: 60},
	}

	targets, err := CompileTargetCheck("LastCT <= TargetCycleTime")
	require.NoError(t, err)

	f := &lineBalanceFixture{
		store:  store,
		views:  newFakeViews(),
		locker: &fakeLocker{},
		events: &fakeEvents{},
	}
	f.service = &LineBalance{
		Config:    testConfig(),
		Tx:        store,
		Layouts:   store,
		WorkPlans: store,
		Studies:   store,
		Takes:     store,
		Records:   store,
		Views:     f.views,
		Locker:    f.locker,
		Events:    f.events,
		Targets:   targets,
	}
	return f
}

func (f *lineBalanceFixture) recordOf(t *testing.T, takeID, stationID string) string {
	t.Helper()
	for _, r := range f.store.recordsOf(takeID) {
		if r.StationID == stationID {
			return r.ID
		}
	}
	t.Fatalf("no record for station %s in take %s", stationID, takeID)
	return ""
}

func TestCreateStudyWritesBaselineTake(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	id, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)

	study := f.store.studies[id]
	require.NotNil(t, study)
	assert.Equal(t, 24, study.Week)
	assert.Equal(t, testLayout, study.LayoutID)
	assert.Equal(t, testUser, study.UserID)

	takes := f.store.takesOf(id)
	require.Len(t, takes, 1)
	assert.Equal(t, testPlan, takes[0].WorkPlanID)

	records := f.store.recordsOf(takes[0].ID)
	require.Len(t, records, 3)
	for i, r := range records {
		assert.Equal(t, []float64{0}, r.CycleTime)
		assert.Equal(t, []string{"station-1", "station-2", "station-3"}[i], r.StationID)
	}

	assert.Equal(t, []string{constant.StudyCreationMutexPrefix + "24:" + testLayout}, f.locker.keys)
	assert.Equal(t, 1, f.locker.released)
	assert.Equal(t, []string{constant.LineBalanceSubjectStudyCreated}, f.events.subjects())
}

func TestCreateStudyRejectsSecondStudyOfWeek(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)

	// same ISO week, another day
	f.store.workPlans["plan-2"] = &model.WorkPlan{ID: "plan-2", LineID: testLine, StrDate: "2023-06-16"}
	_, err = f.service.CreateStudy(ctx, "2023-06-16", testLine, testUser)
	assert.True(t, apperr.Is(err, apperr.ErrConflict), "got %v", err)

	assert.Len(t, f.store.studies, 1)
	assert.Len(t, f.store.takes, 1)
	assert.Len(t, f.store.records, 3)
	assert.Equal(t, 2, f.locker.released)
}

func TestCreateStudyNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("no active layout", func(t *testing.T) {
		f := newLineBalanceFixture(t)
		f.store.layouts[testLayout].IsActive = false

		_, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
		assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)
		assert.Empty(t, f.store.studies)
	})

	t.Run("no work plan for the date", func(t *testing.T) {
		f := newLineBalanceFixture(t)

		_, err := f.service.CreateStudy(ctx, "2023-06-15", testLine, testUser)
		assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)
		assert.Empty(t, f.store.studies)
		assert.Empty(t, f.locker.keys)
	})
}

func TestCreateStudyRejectsMalformedDate(t *testing.T) {
	f := newLineBalanceFixture(t)

	_, err := f.service.CreateStudy(context.Background(), "14/06/2023", testLine, testUser)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidReq), "got %v", err)
}

func TestCreateStudyRollsBackOnFailure(t *testing.T) {
	f := newLineBalanceFixture(t)
	f.store.failOn = "CreateRecords"

	_, err := f.service.CreateStudy(context.Background(), "2023-06-14", testLine, testUser)
	assert.ErrorIs(t, err, errInjected)

	assert.Empty(t, f.store.studies)
	assert.Empty(t, f.store.takes)
	assert.Empty(t, f.store.records)
	assert.Empty(t, f.events.subjects())
}

func TestCreateStudyHonorsHeldLock(t *testing.T) {
	f := newLineBalanceFixture(t)
	f.locker.err = apperr.ErrConflict.Msg("held")

	_, err := f.service.CreateStudy(context.Background(), "2023-06-14", testLine, testUser)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
	assert.Empty(t, f.store.studies)
}

func TestCreateTake(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	studyID, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)

	t.Run("empty station list", func(t *testing.T) {
		_, err := f.service.CreateTake(ctx, studyID, []string{}, testUser)
		assert.True(t, apperr.Is(err, apperr.ErrInvalidReq), "got %v", err)
	})

	t.Run("station outside the layout", func(t *testing.T) {
		_, err := f.service.CreateTake(ctx, studyID, []string{"station-1", "station-9"}, testUser)
		require.True(t, apperr.Is(err, apperr.ErrInvalidReq), "got %v", err)

		var e *apperr.Error
		require.ErrorAs(t, err, &e)
		require.NotNil(t, e.Extras)
		assert.Equal(t, []string{"station-9"}, (*e.Extras)["stationIds"])
	})

	t.Run("unknown study", func(t *testing.T) {
		_, err := f.service.CreateTake(ctx, "01h2xcejqtf2nbrexx3vqjhp4z", []string{"station-1"}, testUser)
		assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)
	})

	t.Run("duplicates collapse to one record per station", func(t *testing.T) {
		takeID, err := f.service.CreateTake(ctx, studyID, []string{"station-2", "station-3", "station-2"}, testUser)
		require.NoError(t, err)

		records := f.store.recordsOf(takeID)
		require.Len(t, records, 2)
		assert.Equal(t, "station-2", records[0].StationID)
		assert.Equal(t, "station-3", records[1].StationID)
		assert.Equal(t, []float64{0}, records[0].CycleTime)
		assert.Equal(t, testPlan, f.store.takes[takeID].WorkPlanID)

		assert.Contains(t, f.views.deleted, studyID)
		assert.Contains(t, f.events.subjects(), constant.LineBalanceSubjectTakeCreated)
	})
}

func TestGetStudyReconcilesTakes(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	studyID, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)
	baseline := f.store.takesOf(studyID)[0].ID

	require.NoError(t, f.service.UpdateCycleTime(ctx, f.recordOf(t, baseline, "station-1"), []float64{50, 52}, testUser))
	require.NoError(t, f.service.UpdateCycleTime(ctx, f.recordOf(t, baseline, "station-2"), []float64{60, 62}, testUser))
	require.NoError(t, f.service.UpdateCycleTime(ctx, f.recordOf(t, baseline, "station-3"), []float64{30}, testUser))

	second, err := f.service.CreateTake(ctx, studyID, []string{"station-2", "station-3"}, testUser)
	require.NoError(t, err)
	require.NoError(t, f.service.UpdateCycleTime(ctx, f.recordOf(t, second, "station-2"), []float64{55, 57}, testUser))
	require.NoError(t, f.service.UpdateCycleTime(ctx, f.recordOf(t, second, "station-3"), []float64{70}, testUser))

	third, err := f.service.CreateTake(ctx, studyID, []string{"station-2"}, testUser)
	require.NoError(t, err)
	require.NoError(t, f.service.UpdateCycleTime(ctx, f.recordOf(t, third, "station-2"), []float64{58}, testUser))

	view, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)

	assert.Equal(t, studyID, view.ID)
	assert.Equal(t, 24, view.Week)
	require.Len(t, view.Takes, 3)
	require.Len(t, view.Records, 3)

	s1, s2, s3 := view.Records[0], view.Records[1], view.Records[2]
	assert.Equal(t, "station-1", s1.StationID)
	assert.Equal(t, 51.0, s1.BaseCT)
	assert.Empty(t, s1.AllCT)
	assert.Equal(t, 51.0, s1.LastCT)
	assert.False(t, s1.HasUpdated)

	assert.Equal(t, 61.0, s2.BaseCT)
	assert.Equal(t, []float64{56, 58}, s2.AllCT)
	assert.Equal(t, 58.0, s2.LastCT)
	assert.True(t, s2.HasUpdated)

	assert.Equal(t, 30.0, s3.BaseCT)
	assert.Equal(t, []float64{70}, s3.AllCT)
	assert.Equal(t, 70.0, s3.LastCT)
	assert.False(t, s3.HasUpdated)

	require.NotNil(t, view.Targets)
	assert.Equal(t, 51.0, view.Targets.TargetUPH)
	assert.Equal(t, 510.0, view.Targets.Commit)
	assert.Equal(t, 60.0, view.Targets.TargetCycleTime)

	bottlenecks := lo.SliceToMap(view.Bottlenecks, func(b *model.BottleneckResult) (string, *model.BottleneckResult) {
		return b.Section, b
	})
	require.Len(t, bottlenecks, 2)
	assert.Equal(t, "station-2", bottlenecks["SMT"].Station.StationID)
	assert.True(t, bottlenecks["SMT"].TargetChecked)
	assert.True(t, bottlenecks["SMT"].MeetsTarget)
	assert.Equal(t, "station-3", bottlenecks["FATP"].Station.StationID)
	assert.True(t, bottlenecks["FATP"].TargetChecked)
	assert.False(t, bottlenecks["FATP"].MeetsTarget)
}

func TestGetStudyServesCachedViewUntilWrite(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	studyID, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)

	first, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	second, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.Same(t, first, second)

	record := f.recordOf(t, f.store.takesOf(studyID)[0].ID, "station-1")
	require.NoError(t, f.service.UpdateCycleTime(ctx, record, []float64{42}, testUser))

	third, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 42.0, third.Records[0].BaseCT)
}

func TestGetStudyDoesNotCacheViewOverlappingWrite(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	studyID, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)
	record := f.recordOf(t, f.store.takesOf(studyID)[0].ID, "station-1")

	f.views.beforeStore = func() {
		require.NoError(t, f.service.UpdateCycleTime(ctx, record, []float64{42}, testUser))
	}
	stale, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stale.Records[0].BaseCT)

	fresh, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, fresh.Records[0].BaseCT)
}

func TestGetStudyWithRedisViewsDoesNotCacheViewOverlappingWrite(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	views := &interleavedViews{StudyViewCache: NewStudyViewCache(client)}
	f.service.Views = views

	studyID, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)
	record := f.recordOf(t, f.store.takesOf(studyID)[0].ID, "station-1")

	views.afterCompute = func() {
		require.NoError(t, f.service.UpdateCycleTime(ctx, record, []float64{42}, testUser))
	}
	_, err = f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(constant.StudyViewCachePrefix+":"+studyID))

	fresh, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, fresh.Records[0].BaseCT)

	cached, err := f.service.GetStudy(ctx, studyID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, cached.Records[0].BaseCT)
}

// interleavedViews runs afterCompute once, after a view is built and before
// the cache gets to store it.
type interleavedViews struct {
	StudyViewCache
	afterCompute func()
}

func (v *interleavedViews) GetSet(ctx context.Context, key string, valueFunc func() (*model.ReconciledStudyView, error), expire time.Duration) (*model.ReconciledStudyView, bool, error) {
	return v.StudyViewCache.GetSet(ctx, key, func() (*model.ReconciledStudyView, error) {
		view, err := valueFunc()
		if hook := v.afterCompute; hook != nil {
			v.afterCompute = nil
			hook()
		}
		return view, err
	}, expire)
}

func TestUpdateCycleTimeUnknownRecord(t *testing.T) {
	f := newLineBalanceFixture(t)

	err := f.service.UpdateCycleTime(context.Background(), "01h2xcejqtf2nbrexx3vqjhp4z", []float64{1}, testUser)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)
	assert.Empty(t, f.events.subjects())
}

func TestDeleteTakeAndStudy(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	studyID, err := f.service.CreateStudy(ctx, "2023-06-14", testLine, testUser)
	require.NoError(t, err)
	takeID, err := f.service.CreateTake(ctx, studyID, []string{"station-1"}, testUser)
	require.NoError(t, err)
	require.Len(t, f.store.records, 4)

	require.NoError(t, f.service.DeleteTake(ctx, takeID, testUser))
	assert.Len(t, f.store.takes, 1)
	assert.Len(t, f.store.records, 3)

	err = f.service.DeleteTake(ctx, takeID, testUser)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)

	require.NoError(t, f.service.DeleteStudy(ctx, studyID, testUser))
	assert.Empty(t, f.store.studies)
	assert.Empty(t, f.store.takes)
	assert.Empty(t, f.store.records)

	err = f.service.DeleteStudy(ctx, studyID, testUser)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound), "got %v", err)

	assert.Equal(t, []string{
		constant.LineBalanceSubjectStudyCreated,
		constant.LineBalanceSubjectTakeCreated,
		constant.LineBalanceSubjectTakeDeleted,
		constant.LineBalanceSubjectStudyDeleted,
	}, f.events.subjects())
}

func TestGetStudyWithoutTakes(t *testing.T) {
	f := newLineBalanceFixture(t)
	f.store.studies["lb-empty"] = &model.LineBalance{ID: "lb-empty", Week: 24, LayoutID: testLayout}

	view, err := f.service.BuildStudyView(context.Background(), "lb-empty")
	require.NoError(t, err)
	assert.Empty(t, view.Records)
	assert.Empty(t, view.Bottlenecks)
	assert.Nil(t, view.Targets)
}

func TestListStudiesByWeek(t *testing.T) {
	f := newLineBalanceFixture(t)
	ctx := context.Background()

	f.store.lines["line-b"] = &model.Line{ID: "line-b", Name: "Line B", IsActive: true}
	f.store.layouts["layout-b"] = &model.Layout{ID: "layout-b", Version: 1, LineID: "line-b", IsActive: true}

	base := time.Date(2023, 6, 14, 8, 0, 0, 0, time.UTC)
	f.store.studies["lb-1"] = &model.LineBalance{ID: "lb-1", Week: 24, LayoutID: "layout-b", CreatedAt: base}
	f.store.studies["lb-2"] = &model.LineBalance{ID: "lb-2", Week: 24, LayoutID: testLayout, CreatedAt: base.Add(time.Hour)}
	f.store.studies["lb-3"] = &model.LineBalance{ID: "lb-3", Week: 24, LayoutID: testLayout, CreatedAt: base}
	f.store.studies["lb-4"] = &model.LineBalance{ID: "lb-4", Week: 25, LayoutID: testLayout, CreatedAt: base}
	f.store.takes["tk-1"] = &model.Take{ID: "tk-1", LineBalanceID: "lb-3"}
	f.store.takes["tk-2"] = &model.Take{ID: "tk-2", LineBalanceID: "lb-3"}

	summaries, err := f.service.ListStudiesByWeek(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, []string{"lb-3", "lb-2", "lb-1"}, lo.Map(summaries, func(s *model.StudySummary, _ int) string {
		return s.ID
	}))
	assert.Equal(t, "Line A", summaries[0].LineName)
	assert.Equal(t, testLine, summaries[0].LineID)
	assert.Equal(t, 2, summaries[0].TakeCount)

	byDate, err := f.service.ListStudiesByDate(ctx, "2023-06-18")
	require.NoError(t, err)
	assert.Len(t, byDate, 3)

	_, err = f.service.ListStudiesByWeek(ctx, 0)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidReq))
	_, err = f.service.ListStudiesByWeek(ctx, 54)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidReq))
}
