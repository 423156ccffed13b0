package service

import (
	"context"
	"time"
)

// ViewCache 学习路线视图缓存，由 pkg/redis.Client 实现；为 nil 时不缓存
type ViewCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

func roadmapCacheKey(userCourseID string) string {
	return "roadmap:view:" + userCourseID
}
