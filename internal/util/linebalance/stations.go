package linebalance

import (
	"sort"

	"gopkg.in/guregu/null.v3"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
)

type DesiredStation struct {
	Index       int    `json:"index"`
	OperationID string `json:"operationId" validate:"required"`
	AreaID      string `json:"areaId"`
}

// StationPlan lists the writes needed to turn the current stations of a layout
// into the desired ones.
type StationPlan struct {
	Updates []*model.Station
	Creates []DesiredStation
	Deletes []string
}

func (p *StationPlan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Creates) == 0 && len(p.Deletes) == 0
}

func (p *StationPlan) Writes() int {
	return len(p.Updates) + len(p.Creates) + len(p.Deletes)
}

// SortStations returns the stations ordered by index.
func SortStations(stations []*model.Station) []*model.Station {
	sorted := make([]*model.Station, len(stations))
	copy(sorted, stations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})
	return sorted
}

func unchanged(current []*model.Station, desired []DesiredStation) bool {
	if len(current) != len(desired) {
		return false
	}
	for i, d := range desired {
		if current[i].OperationID.String != d.OperationID || current[i].Index != d.Index {
			return false
		}
	}
	return true
}

// PlanStationUpdate matches desired stations to current ones by operation id.
// Matched stations are moved in place, unmatched desired entries are created
// and current stations left unmatched are deleted. Each current station is
// matched at most once. When both lists agree positionally on
// (operation id, index) the plan is empty.
func PlanStationUpdate(current []*model.Station, desired []DesiredStation) (*StationPlan, error) {
	if len(desired) == 0 {
		return nil, apperr.ErrInvalidReq.Msg("desired station list is empty")
	}
	seen := make(map[int]struct{}, len(desired))
	for _, d := range desired {
		if d.OperationID == "" {
			return nil, apperr.ErrInvalidReq.Msg("station at index %d has no operation", d.Index)
		}
		if _, dup := seen[d.Index]; dup {
			return nil, apperr.ErrInvalidReq.Msg("station index %d is used more than once", d.Index)
		}
		seen[d.Index] = struct{}{}
	}

	sorted := SortStations(current)
	plan := &StationPlan{}
	if unchanged(sorted, desired) {
		return plan, nil
	}

	byOperation := make(map[string][]*model.Station)
	for _, s := range sorted {
		byOperation[s.OperationID.String] = append(byOperation[s.OperationID.String], s)
	}

	kept := make(map[string]struct{}, len(sorted))
	for _, d := range desired {
		candidates := byOperation[d.OperationID]
		if len(candidates) == 0 {
			plan.Creates = append(plan.Creates, d)
			continue
		}
		s := candidates[0]
		byOperation[d.OperationID] = candidates[1:]
		kept[s.ID] = struct{}{}

		if s.Index == d.Index && s.AreaID.String == d.AreaID {
			continue
		}
		moved := *s
		moved.Index = d.Index
		moved.AreaID = null.NewString(d.AreaID, d.AreaID != "")
		moved.Area = nil
		moved.Operation = nil
		plan.Updates = append(plan.Updates, &moved)
	}

	for _, s := range sorted {
		if _, ok := kept[s.ID]; !ok {
			plan.Deletes = append(plan.Deletes, s.ID)
		}
	}

	return plan, nil
}
