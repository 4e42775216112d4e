package service

import (
	"context"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/repo"
)

type PlatformStore interface {
	ListPlatformsInService(ctx context.Context) ([]*model.Platform, error)
}

type Platform struct {
	Platforms PlatformStore
}

func NewPlatform(platforms *repo.Platform) *Platform {
	return &Platform{
		Platforms: platforms,
	}
}

func (s *Platform) ListPlatformsInService(ctx context.Context) ([]*model.Platform, error) {
	return s.Platforms.ListPlatformsInService(ctx)
}
