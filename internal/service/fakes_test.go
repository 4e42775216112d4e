package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory stand-in for every repository the services use.
// RunInTx snapshots the tables and restores them when fn fails.
type memStore struct {
	mu sync.Mutex

	users      map[string]*model.User
	factories  []*model.Factory
	lines      map[string]*model.Line
	operations []*model.Operation
	areas      []*model.Area
	layouts    map[string]*model.Layout
	stations   map[string]*model.Station
	workPlans  map[string]*model.WorkPlan
	studies    map[string]*model.LineBalance
	takes      map[string]*model.Take
	records    map[string]*model.CycleTimeRecord

	failOn       string
	catalogReads int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*model.User{},
		lines:     map[string]*model.Line{},
		layouts:   map[string]*model.Layout{},
		stations:  map[string]*model.Station{},
		workPlans: map[string]*model.WorkPlan{},
		studies:   map[string]*model.LineBalance{},
		takes:     map[string]*model.Take{},
		records:   map[string]*model.CycleTimeRecord{},
	}
}

func copyMap[T any](m map[string]*T) map[string]*T {
	c := make(map[string]*T, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errInjected
	}
	return nil
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	m.mu.Lock()
	layouts, stations := copyMap(m.layouts), copyMap(m.stations)
	studies, takes, records := copyMap(m.studies), copyMap(m.takes), copyMap(m.records)
	m.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.layouts, m.stations = layouts, stations
		m.studies, m.takes, m.records = studies, takes, records
		m.mu.Unlock()
		return err
	}
	return nil
}

// users, factories, lines and the catalogue

func (m *memStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ListFactories(ctx context.Context) ([]*model.Factory, error) {
	return m.factories, nil
}

func (m *memStore) GetLineByID(ctx context.Context, id string) (*model.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return l, nil
}

func (m *memStore) ListActiveLines(ctx context.Context) ([]*model.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]*model.Line, 0, len(m.lines))
	for _, l := range m.lines {
		if l.IsActive {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

func (m *memStore) ListOperations(ctx context.Context) ([]*model.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogReads++
	return m.operations, nil
}

func (m *memStore) ListAreas(ctx context.Context) ([]*model.Area, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogReads++
	return m.areas, nil
}

// layouts and stations

func (m *memStore) stationsOf(layoutID string) []*model.Station {
	stations := make([]*model.Station, 0)
	for _, st := range m.stations {
		if st.LayoutID.String == layoutID {
			stations = append(stations, st)
		}
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].Index < stations[j].Index })
	return stations
}

func (m *memStore) graphOf(l *model.Layout) *model.Layout {
	c := *l
	c.Line = m.lines[l.LineID]
	c.Stations = m.stationsOf(l.ID)
	return &c
}

func (m *memStore) GetActiveLayoutByLine(ctx context.Context, lineID string) (*model.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.layouts {
		if l.LineID == lineID && l.IsActive {
			return m.graphOf(l), nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memStore) GetLayoutByID(ctx context.Context, id string) (*model.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.layouts[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return m.graphOf(l), nil
}

func (m *memStore) ListLayouts(ctx context.Context) ([]*model.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	layouts := make([]*model.Layout, 0, len(m.layouts))
	for _, l := range m.layouts {
		layouts = append(layouts, m.graphOf(l))
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].Version > layouts[j].Version })
	return layouts, nil
}

func (m *memStore) LatestVersion(ctx context.Context, db bun.IDB, lineID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := 0
	for _, l := range m.layouts {
		if l.LineID == lineID && l.Version > latest {
			latest = l.Version
		}
	}
	return latest, nil
}

func (m *memStore) DeactivateLayoutsOfLine(ctx context.Context, db bun.IDB, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.layouts {
		if l.LineID == lineID && l.IsActive {
			c := *l
			c.IsActive = false
			m.layouts[id] = &c
		}
	}
	return nil
}

func (m *memStore) CreateLayout(ctx context.Context, db bun.IDB, layout *model.Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateLayout"); err != nil {
		return err
	}
	m.layouts[layout.ID] = layout
	return nil
}

func (m *memStore) ListStationsByLayout(ctx context.Context, db bun.IDB, layoutID string) ([]*model.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stationsOf(layoutID), nil
}

func (m *memStore) CreateStations(ctx context.Context, db bun.IDB, stations []*model.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateStations"); err != nil {
		return err
	}
	for _, st := range stations {
		if _, dup := m.stations[st.ID]; dup {
			return apperr.ErrConflict
		}
		m.stations[st.ID] = st
	}
	return nil
}

func (m *memStore) UpdateStationPlacement(ctx context.Context, db bun.IDB, stations []*model.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range stations {
		current, ok := m.stations[st.ID]
		if !ok {
			return apperr.ErrNotFound
		}
		c := *current
		c.Index, c.AreaID = st.Index, st.AreaID
		m.stations[st.ID] = &c
	}
	return nil
}

func (m *memStore) DeleteStations(ctx context.Context, db bun.IDB, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.stations, id)
	}
	return nil
}

// work plans

func (m *memStore) GetWorkPlanByID(ctx context.Context, id string) (*model.WorkPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wp, ok := m.workPlans[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return wp, nil
}

func (m *memStore) GetWorkPlan(ctx context.Context, lineID, strDate string) (*model.WorkPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.WorkPlan
	for _, wp := range m.workPlans {
		if wp.LineID == lineID && wp.StrDate == strDate && (found == nil || wp.CreatedAt.After(found.CreatedAt)) {
			found = wp
		}
	}
	if found == nil {
		return nil, apperr.ErrNotFound
	}
	return found, nil
}

func (m *memStore) GetLatestWorkPlanByLine(ctx context.Context, lineID string) (*model.WorkPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.WorkPlan
	for _, wp := range m.workPlans {
		if wp.LineID == lineID && (found == nil || wp.CreatedAt.After(found.CreatedAt)) {
			found = wp
		}
	}
	if found == nil {
		return nil, apperr.ErrNotFound
	}
	return found, nil
}

func (m *memStore) ListWorkPlansByDate(ctx context.Context, strDate string) ([]*model.WorkPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plans := make([]*model.WorkPlan, 0)
	for _, wp := range m.workPlans {
		if wp.StrDate == strDate {
			plans = append(plans, wp)
		}
	}
	return plans, nil
}

// studies, takes and records

func (m *memStore) FindStudy(ctx context.Context, db bun.IDB, week int, layoutID string) (*model.LineBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lb := range m.studies {
		if lb.Week == week && lb.LayoutID == layoutID {
			return lb, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memStore) GetStudyByID(ctx context.Context, id string) (*model.LineBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb, ok := m.studies[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return lb, nil
}

func (m *memStore) GetStudyGraph(ctx context.Context, id string) (*model.LineBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb, ok := m.studies[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	graph := *lb
	if l, ok := m.layouts[lb.LayoutID]; ok {
		graph.Layout = m.graphOf(l)
	}
	graph.Takes = nil
	for _, tk := range m.takes {
		if tk.LineBalanceID != id {
			continue
		}
		t := *tk
		t.WorkPlan = m.workPlans[tk.WorkPlanID]
		t.Records = nil
		for _, r := range m.records {
			if r.TakeID != tk.ID {
				continue
			}
			rc := *r
			rc.Station = m.stations[r.StationID]
			t.Records = append(t.Records, &rc)
		}
		sort.Slice(t.Records, func(i, j int) bool { return t.Records[i].ID < t.Records[j].ID })
		graph.Takes = append(graph.Takes, &t)
	}
	return &graph, nil
}

func (m *memStore) ListStudiesByWeek(ctx context.Context, week int) ([]*model.LineBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	studies := make([]*model.LineBalance, 0)
	for _, lb := range m.studies {
		if lb.Week != week {
			continue
		}
		c := *lb
		if l, ok := m.layouts[lb.LayoutID]; ok {
			c.Layout = m.graphOf(l)
		}
		for _, tk := range m.takes {
			if tk.LineBalanceID == lb.ID {
				c.TakeCount++
			}
		}
		studies = append(studies, &c)
	}
	return studies, nil
}

func (m *memStore) CreateStudy(ctx context.Context, db bun.IDB, study *model.LineBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateStudy"); err != nil {
		return err
	}
	m.studies[study.ID] = study
	return nil
}

func (m *memStore) DeleteStudy(ctx context.Context, db bun.IDB, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.studies[id]; !ok {
		return apperr.ErrNotFound
	}
	for tid, tk := range m.takes {
		if tk.LineBalanceID != id {
			continue
		}
		m.deleteRecordsOf(tid)
		delete(m.takes, tid)
	}
	delete(m.studies, id)
	return nil
}

func (m *memStore) GetTakeByID(ctx context.Context, id string) (*model.Take, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tk, ok := m.takes[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return tk, nil
}

func (m *memStore) CreateTake(ctx context.Context, db bun.IDB, take *model.Take) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateTake"); err != nil {
		return err
	}
	m.takes[take.ID] = take
	return nil
}

func (m *memStore) deleteRecordsOf(takeID string) {
	for rid, r := range m.records {
		if r.TakeID == takeID {
			delete(m.records, rid)
		}
	}
}

func (m *memStore) DeleteTake(ctx context.Context, db bun.IDB, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.takes[id]; !ok {
		return apperr.ErrNotFound
	}
	m.deleteRecordsOf(id)
	delete(m.takes, id)
	return nil
}

func (m *memStore) CreateRecords(ctx context.Context, db bun.IDB, records []*model.CycleTimeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateRecords"); err != nil {
		return err
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *memStore) UpdateCycleTime(ctx context.Context, db bun.IDB, id string, samples []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return apperr.ErrNotFound
	}
	c := *r
	c.CycleTime = samples
	m.records[id] = &c
	return nil
}

func (m *memStore) GetStudyIDOfRecord(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return "", apperr.ErrNotFound
	}
	tk, ok := m.takes[r.TakeID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return tk.LineBalanceID, nil
}

// recordsOf lists the records of a take ordered by station index.
func (m *memStore) recordsOf(takeID string) []*model.CycleTimeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]*model.CycleTimeRecord, 0)
	for _, r := range m.records {
		if r.TakeID == takeID {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return m.stations[records[i].StationID].Index < m.stations[records[j].StationID].Index
	})
	return records
}

func (m *memStore) takesOf(studyID string) []*model.Take {
	m.mu.Lock()
	defer m.mu.Unlock()
	takes := make([]*model.Take, 0)
	for _, tk := range m.takes {
		if tk.LineBalanceID == studyID {
			takes = append(takes, tk)
		}
	}
	sort.Slice(takes, func(i, j int) bool { return takes[i].ID < takes[j].ID })
	return takes
}

// fakeViews keeps the versioning contract of cache.Set: a value computed
// across a Delete of its key or a Clear is returned but not stored.
type fakeViews struct {
	mu         sync.Mutex
	views      map[string]*model.ReconciledStudyView
	versions   map[string]int
	generation int
	deleted    []string
	clears     int

	// beforeStore runs once between computing a view and storing it.
	beforeStore func()
}

func newFakeViews() *fakeViews {
	return &fakeViews{
		views:    map[string]*model.ReconciledStudyView{},
		versions: map[string]int{},
	}
}

func (f *fakeViews) GetSet(ctx context.Context, key string, valueFunc func() (*model.ReconciledStudyView, error), expire time.Duration) (*model.ReconciledStudyView, bool, error) {
	f.mu.Lock()
	if v, ok := f.views[key]; ok {
		f.mu.Unlock()
		return v, false, nil
	}
	version, generation := f.versions[key], f.generation
	hook := f.beforeStore
	f.beforeStore = nil
	f.mu.Unlock()

	v, err := valueFunc()
	if err != nil {
		return nil, false, err
	}
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.versions[key] == version && f.generation == generation {
		f.views[key] = v
	}
	return v, true, nil
}

func (f *fakeViews) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.views, k)
		f.versions[k]++
	}
	f.deleted = append(f.deleted, keys...)
	return nil
}

func (f *fakeViews) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = map[string]*model.ReconciledStudyView{}
	f.generation++
	f.clears++
	return nil
}

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, expiry time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	return func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

type publishedEvent struct {
	Subject string
	Event   *model.LineBalanceEvent
}

type fakeEvents struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (f *fakeEvents) Publish(ctx context.Context, subject string, event *model.LineBalanceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedEvent{Subject: subject, Event: event})
}

func (f *fakeEvents) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	subjects := make([]string, 0, len(f.published))
	for _, p := range f.published {
		subjects = append(subjects, p.Subject)
	}
	return subjects
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		ConfigSpec: appconfig.ConfigSpec{
			StudyViewCacheTTL:       time.Minute,
			StudyCreationLockExpiry: time.Second,
			TargetCheckRule:         "LastCT <= TargetCycleTime",
		},
	}
}
