package service

import (
	"github.com/redis/go-redis/v9"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/cache"
)

func NewStudyViewCache(client *redis.Client) *cache.Set[model.ReconciledStudyView] {
	return cache.NewSet[model.ReconciledStudyView](client, constant.StudyViewCachePrefix)
}
