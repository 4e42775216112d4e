package service

import (
	"context"

	"github.com/samber/lo"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo"
	"ietool.dev/backend-next/internal/util/linebalance"
)

type FactoryStore interface {
	ListFactories(ctx context.Context) ([]*model.Factory, error)
}

type Line struct {
	Factories FactoryStore
	Lines     LineStore
}

func NewLine(factories *repo.Factory, lines *repo.Line) *Line {
	return &Line{
		Factories: factories,
		Lines:     lines,
	}
}

// ListFactoriesWithLines groups the active lines under their factory.
// Factories without active lines are listed with an empty slice.
func (s *Line) ListFactoriesWithLines(ctx context.Context) ([]*model.FactoryWithLines, error) {
	factories, err := s.Factories.ListFactories(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.Lines.ListActiveLines(ctx)
	if err != nil {
		return nil, err
	}

	byFactory := lo.GroupBy(lines, func(l *model.Line) string {
		return l.FactoryID
	})

	results := make([]*model.FactoryWithLines, 0, len(factories))
	for _, f := range factories {
		group := &model.FactoryWithLines{
			ID:    f.ID,
			Name:  f.Name,
			Lines: make([]*model.LineView, 0, len(byFactory[f.ID])),
		}
		for _, l := range byFactory[f.ID] {
			v, err := linebalance.LineViewOf(l)
			if err != nil {
				return nil, err
			}
			group.Lines = append(group.Lines, v)
		}
		results = append(results, group)
	}
	return results, nil
}
