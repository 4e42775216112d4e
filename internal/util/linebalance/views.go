package linebalance

import (
	"github.com/jinzhu/copier"

	"ietool.dev/backend-next/internal/model"
)

func AreaViewOf(a *model.Area) *model.AreaView {
	if a == nil {
		return nil
	}
	return &model.AreaView{
		ID:      a.ID,
		Index:   a.Index.Int64,
		Name:    a.Name,
		Section: a.Section.String,
	}
}

func StationViewOf(s *model.Station) *model.StationView {
	v := &model.StationView{
		ID:          s.ID,
		Index:       s.Index,
		OperationID: s.OperationID.String,
		Area:        AreaViewOf(s.Area),
	}
	if s.Operation != nil {
		v.OperationLabel = s.Operation.Label.String
		v.OperationName = s.Operation.Name
		v.IsAutomatic = s.Operation.IsAutomatic
	}
	return v
}

// LayoutSummaryOf projects a layout loaded with its line, factory, user and
// stations. Stations are ordered by index.
func LayoutSummaryOf(l *model.Layout) *model.LayoutSummary {
	v := &model.LayoutSummary{
		ID:       l.ID,
		Version:  l.Version,
		IsActive: l.IsActive,
		LineID:   l.LineID,
		Stations: make([]*model.StationView, 0, len(l.Stations)),
	}
	if l.Line != nil {
		v.LineName = l.Line.Name
		v.FactoryID = l.Line.FactoryID
		if l.Line.Factory != nil {
			v.FactoryName = l.Line.Factory.Name
		}
	}
	if l.User != nil {
		v.Username = l.User.Username
	}
	for _, s := range SortStations(l.Stations) {
		v.Stations = append(v.Stations, StationViewOf(s))
	}
	return v
}

// TakeViewsOf projects takes in reconciliation order.
func TakeViewsOf(takes []*model.Take) []*model.TakeView {
	views := make([]*model.TakeView, 0, len(takes))
	for _, t := range SortTakes(takes) {
		v := &model.TakeView{
			ID:         t.ID,
			WorkPlanID: t.WorkPlanID,
			UserID:     t.UserID,
			CreatedAt:  t.CreatedAt,
			Records:    make([]*model.RecordView, 0, len(t.Records)),
		}
		for _, r := range t.Records {
			v.Records = append(v.Records, &model.RecordView{
				ID:            r.ID,
				StationID:     r.StationID,
				CycleTime:     r.CycleTime,
				MeanCycleTime: MeanCycleTime(r.CycleTime),
			})
		}
		views = append(views, v)
	}
	return views
}

// WorkPlanViewOf projects a work plan with its platform loaded and computes
// its residuals.
func WorkPlanViewOf(wp *model.WorkPlan) (*model.WorkPlanView, error) {
	v := &model.WorkPlanView{}
	if err := copier.Copy(v, wp); err != nil {
		return nil, err
	}
	targets := TargetsOf(wp)
	v.UPHMeta = targets.TargetUPH
	v.Commit = targets.Commit
	v.CommitFull = FullCommit(wp.RatedUPH(), wp.PlannedHours)
	v.TargetCycleTime = targets.TargetCycleTime
	v.Platform = wp.Platform
	return v, nil
}

// LineViewOf projects a line for listings.
func LineViewOf(l *model.Line) (*model.LineView, error) {
	v := &model.LineView{}
	if err := copier.Copy(v, l); err != nil {
		return nil, err
	}
	return v, nil
}
