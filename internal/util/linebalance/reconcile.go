package linebalance

import (
	"sort"

	"ietool.dev/backend-next/internal/model"
)

// Reconciliation is the merged view of every take of one study.
type Reconciliation struct {
	Stations []*model.ReconciledStation

	// Orphans lists the ids of baseline records whose station (or its area)
	// could not be resolved. They are left out of Stations.
	Orphans []string
}

// SortTakes returns the takes ordered by creation time. Takes created at the
// same instant are ordered by id, which is time-sortable.
func SortTakes(takes []*model.Take) []*model.Take {
	sorted := make([]*model.Take, len(takes))
	copy(sorted, takes)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}

// Reconcile merges the takes of a study into one series per station. The
// oldest take is the baseline. Every later take is an update whose records
// are pooled per station in take order; the latest update wins and stations
// never re-measured keep their baseline value.
func Reconcile(takes []*model.Take) *Reconciliation {
	r := &Reconciliation{
		Stations: []*model.ReconciledStation{},
		Orphans:  []string{},
	}
	if len(takes) == 0 {
		return r
	}

	sorted := SortTakes(takes)
	baseline, updates := sorted[0], sorted[1:]

	pooled := make(map[string][]float64)
	for _, take := range updates {
		for _, record := range take.Records {
			pooled[record.StationID] = append(pooled[record.StationID], MeanCycleTime(record.CycleTime))
		}
	}

	for _, record := range baseline.Records {
		if record.Station == nil || record.Station.Area == nil {
			r.Orphans = append(r.Orphans, record.ID)
			continue
		}

		baseCT := MeanCycleTime(record.CycleTime)
		allCT, ok := pooled[record.StationID]
		if !ok {
			allCT = []float64{}
		}

		lastCT := baseCT
		if len(allCT) > 0 {
			lastCT = allCT[len(allCT)-1]
		}

		station := StationViewOf(record.Station)
		r.Stations = append(r.Stations, &model.ReconciledStation{
			ID:         record.ID,
			Index:      record.Station.Index,
			HasUpdated: len(allCT) > 1,
			BaseCT:     baseCT,
			AllCT:      allCT,
			LastCT:     lastCT,
			StationID:  record.StationID,
			Area:       station.Area,
			Station:    station,
		})
	}

	sort.SliceStable(r.Stations, func(i, j int) bool {
		return r.Stations[i].Index < r.Stations[j].Index
	})

	return r
}
