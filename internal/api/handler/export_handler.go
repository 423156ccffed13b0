package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/ahmeeeeedddddd/Studify/internal/service"
	"github.com/ahmeeeeedddddd/Studify/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoadmap 导出学习路线
// GET /api/v1/roadmaps/:id/export?format=xlsx|ics
func (h *ExportHandler) ExportRoadmap(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}

	file, err := h.exportSvc.ExportRoadmap(c.Request.Context(), userID, id, c.DefaultQuery("format", service.ExportXLSX))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(file.Filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, file.ContentType, file.Content.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportFormat):
		response.BadRequest(c, 22001, "format 仅支持 xlsx 或 ics")
	case errors.Is(err, service.ErrRoadmapNotFound):
		response.NotFound(c, 20004, "学习路线不存在")
	case errors.Is(err, service.ErrExportNoPlans):
		response.NotFound(c, 22002, "学习路线中没有每日计划")
	default:
		c.Error(err)
		response.InternalError(c)
	}
}
