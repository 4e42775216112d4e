package service

import (
	"context"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo"
	"ietool.dev/backend-next/internal/util/linebalance"
)

type WorkPlan struct {
	WorkPlans WorkPlanStore
}

func NewWorkPlan(workPlans *repo.WorkPlan) *WorkPlan {
	return &WorkPlan{
		WorkPlans: workPlans,
	}
}

func (s *WorkPlan) GetWorkPlan(ctx context.Context, id string) (*model.WorkPlanView, error) {
	wp, err := s.WorkPlans.GetWorkPlanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return linebalance.WorkPlanViewOf(wp)
}

// GetWorkPlansByDate returns every plan of a date with its residuals.
func (s *WorkPlan) GetWorkPlansByDate(ctx context.Context, strDate string) ([]*model.WorkPlanView, error) {
	plans, err := s.WorkPlans.ListWorkPlansByDate(ctx, strDate)
	if err != nil {
		return nil, err
	}
	views := make([]*model.WorkPlanView, 0, len(plans))
	for _, wp := range plans {
		v, err := linebalance.WorkPlanViewOf(wp)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
