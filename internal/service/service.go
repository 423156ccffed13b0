package service

import (
	"go.uber.org/zap"

	"github.com/ahmeeeeedddddd/Studify/config"
	"github.com/ahmeeeeedddddd/Studify/internal/ingest"
	"github.com/ahmeeeeedddddd/Studify/internal/repository"
	"github.com/ahmeeeeedddddd/Studify/pkg/aigen"
	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Roadmap  RoadmapService
	Progress ProgressService
	Export   ExportService
}

// NewService 创建 Service 聚合
// cache 为 nil 时不缓存学习路线视图
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	generator aigen.Generator,
	pipeline *ingest.Pipeline,
	cache ViewCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		Roadmap:  NewRoadmapService(&cfg.Roadmap, repo, generator, pipeline, cache, m, logger),
		Progress: NewProgressService(repo, cache, logger),
		Export:   NewExportService(repo, logger),
	}
}
