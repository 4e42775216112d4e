package linebalance

import (
	"github.com/samber/lo"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
)

func sectionOf(s *model.ReconciledStation) string {
	if s.Area == nil {
		return ""
	}
	return s.Area.Section
}

// SelectBottleneck returns the station of the section with the largest LastCT.
// On ties the first station encountered wins.
func SelectBottleneck(stations []*model.ReconciledStation, section string) (*model.ReconciledStation, error) {
	var worst *model.ReconciledStation
	for _, s := range stations {
		if sectionOf(s) != section {
			continue
		}
		if worst == nil || s.LastCT > worst.LastCT {
			worst = s
		}
	}
	if worst == nil {
		return nil, apperr.ErrInvalidReq.Msg("section %q has no reconciled stations", section)
	}
	return worst, nil
}

// Sections returns the distinct non-empty sections in order of first appearance.
func Sections(stations []*model.ReconciledStation) []string {
	sections := lo.Uniq(lo.Map(stations, func(s *model.ReconciledStation, _ int) string {
		return sectionOf(s)
	}))
	return lo.Without(sections, "")
}

// SelectBottlenecks selects the bottleneck of every section present in stations.
func SelectBottlenecks(stations []*model.ReconciledStation) ([]*model.BottleneckResult, error) {
	results := make([]*model.BottleneckResult, 0)
	for _, section := range Sections(stations) {
		worst, err := SelectBottleneck(stations, section)
		if err != nil {
			return nil, err
		}
		results = append(results, &model.BottleneckResult{
			Section: section,
			Station: worst,
		})
	}
	return results, nil
}
