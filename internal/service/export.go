package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"ietool.dev/backend-next/internal/model"
)

const (
	sheetSummary  = "Summary"
	sheetStations = "Stations"
	sheetTakes    = "Takes"
)

type StudyViewer interface {
	GetStudy(ctx context.Context, studyID string) (*model.ReconciledStudyView, error)
	BuildStudyView(ctx context.Context, studyID string) (*model.ReconciledStudyView, error)
}

type Export struct {
	Studies StudyViewer
}

func NewExport(lineBalance *LineBalance) *Export {
	return &Export{
		Studies: lineBalance,
	}
}

// ExportStudy renders the reconciled view of a study as an xlsx workbook and
// suggests a file name for it.
func (s *Export) ExportStudy(ctx context.Context, studyID string) ([]byte, string, error) {
	view, err := s.Studies.GetStudy(ctx, studyID)
	if err != nil {
		return nil, "", err
	}
	book, err := RenderWorkbook(view)
	if err != nil {
		return nil, "", err
	}
	return book, WorkbookName(view), nil
}

// RenderStudy builds the view afresh, bypassing the view cache.
func (s *Export) RenderStudy(ctx context.Context, studyID string) ([]byte, error) {
	view, err := s.Studies.BuildStudyView(ctx, studyID)
	if err != nil {
		return nil, err
	}
	return RenderWorkbook(view)
}

func WorkbookName(view *model.ReconciledStudyView) string {
	line := "line"
	if view.Layout != nil && view.Layout.LineName != "" {
		line = strings.ReplaceAll(view.Layout.LineName, " ", "_")
	}
	return fmt.Sprintf("linebalance_%s_w%02d_%s.xlsx", line, view.Week, view.StrDate)
}

func RenderWorkbook(view *model.ReconciledStudyView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, errors.Wrap(err, "export: rename sheet")
	}
	for _, name := range []string{sheetStations, sheetTakes} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, errors.Wrapf(err, "export: create sheet %s", name)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "export: header style")
	}
	highlight, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F8CBAD"}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "export: highlight style")
	}

	w := &sheetWriter{f: f, header: header}
	w.summary(view)
	w.stations(view, highlight)
	w.takes(view)
	if w.err != nil {
		return nil, errors.Wrap(w.err, "export: write rows")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "export: serialize workbook")
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows to sheets and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, row int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) style(sheet string, row, columns, style int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(columns, row)
	w.err = w.f.SetCellStyle(sheet, from, to, style)
}

func (w *sheetWriter) summary(view *model.ReconciledStudyView) {
	r := 1
	w.row(sheetSummary, r, "Line balance", view.ID)
	r++
	w.row(sheetSummary, r, "Date", view.StrDate)
	r++
	w.row(sheetSummary, r, "Week", view.Week)
	r++
	if view.Layout != nil {
		w.row(sheetSummary, r, "Factory", view.Layout.FactoryName)
		r++
		w.row(sheetSummary, r, "Line", view.Layout.LineName)
		r++
		w.row(sheetSummary, r, "Layout version", view.Layout.Version)
		r++
	}
	w.row(sheetSummary, r, "Takes", len(view.Takes))
	r++
	if view.Targets != nil {
		w.row(sheetSummary, r, "Target UPH", view.Targets.TargetUPH)
		r++
		w.row(sheetSummary, r, "Commit", view.Targets.Commit)
		r++
		w.row(sheetSummary, r, "Target cycle time (s)", view.Targets.TargetCycleTime)
		r++
	}

	r++
	w.row(sheetSummary, r, "Section", "Bottleneck station", "Index", "Operation", "Last CT (s)", "Target CT (s)", "Meets target")
	w.style(sheetSummary, r, 7, w.header)
	for _, b := range view.Bottlenecks {
		r++
		operation := ""
		if b.Station.Station != nil {
			operation = b.Station.Station.OperationName
		}
		meets := "-"
		if b.TargetChecked {
			meets = lo.Ternary(b.MeetsTarget, "yes", "no")
		}
		w.row(sheetSummary, r, b.Section, b.Station.StationID, b.Station.Index, operation, b.Station.LastCT, b.TargetCycleTime, meets)
	}
}

func (w *sheetWriter) stations(view *model.ReconciledStudyView, highlight int) {
	w.row(sheetStations, 1, "Index", "Section", "Area", "Operation label", "Operation", "Automatic", "Base CT (s)", "Last CT (s)", "Updated", "All CT (s)")
	w.style(sheetStations, 1, 10, w.header)

	bottlenecks := lo.SliceToMap(view.Bottlenecks, func(b *model.BottleneckResult) (string, struct{}) {
		return b.Station.ID, struct{}{}
	})
	for i, st := range view.Records {
		r := i + 2
		var section, area, label, operation string
		var automatic bool
		if st.Area != nil {
			section, area = st.Area.Section, st.Area.Name
		}
		if st.Station != nil {
			label, operation, automatic = st.Station.OperationLabel, st.Station.OperationName, st.Station.IsAutomatic
		}
		all := strings.Join(lo.Map(st.AllCT, func(v float64, _ int) string {
			return fmt.Sprintf("%.2f", v)
		}), ", ")
		w.row(sheetStations, r, st.Index, section, area, label, operation, automatic, st.BaseCT, st.LastCT, st.HasUpdated, all)
		if _, ok := bottlenecks[st.ID]; ok {
			w.style(sheetStations, r, 10, highlight)
		}
	}
}

func (w *sheetWriter) takes(view *model.ReconciledStudyView) {
	w.row(sheetTakes, 1, "Take", "Taken at", "Work plan", "Station", "Mean CT (s)", "Samples")
	w.style(sheetTakes, 1, 6, w.header)

	r := 2
	for _, t := range view.Takes {
		for _, rec := range t.Records {
			samples := strings.Join(lo.Map(rec.CycleTime, func(v float64, _ int) string {
				return fmt.Sprintf("%g", v)
			}), ", ")
			w.row(sheetTakes, r, t.ID, t.CreatedAt.UTC().Format("2006-01-02 15:04:05"), t.WorkPlanID, rec.StationID, rec.MeanCycleTime, samples)
			r++
		}
	}
}
