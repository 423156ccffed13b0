package handler

import "github.com/ahmeeeeedddddd/Studify/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Roadmap  *RoadmapHandler
	Progress *ProgressHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Roadmap:  NewRoadmapHandler(svc.Roadmap),
		Progress: NewProgressHandler(svc.Progress),
		Export:   NewExportHandler(svc.Export),
	}
}
