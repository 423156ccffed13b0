package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ahmeeeeedddddd/Studify/internal/dto"
	"github.com/ahmeeeeedddddd/Studify/internal/service"
	"github.com/ahmeeeeedddddd/Studify/pkg/response"
)

// ProgressHandler 完成状态与进度 HTTP 处理器
type ProgressHandler struct {
	progressSvc service.ProgressService
}

// NewProgressHandler 创建 ProgressHandler
func NewProgressHandler(progressSvc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// ToggleTask 切换任务完成状态
// PUT /api/v1/tasks/:id/complete
func (h *ProgressHandler) ToggleTask(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}

	var req dto.ToggleCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.progressSvc.ToggleTask(c.Request.Context(), userID, id, *req.IsCompleted)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, result)
}

// ToggleDay 切换每日计划完成状态
// PUT /api/v1/days/:id/complete
func (h *ProgressHandler) ToggleDay(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}

	var req dto.ToggleCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.progressSvc.ToggleDay(c.Request.Context(), userID, id, *req.IsCompleted)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, result)
}

// GetProgress 学习进度
// GET /api/v1/roadmaps/:id/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}

	result, err := h.progressSvc.GetProgress(c.Request.Context(), userID, id)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, result)
}

// SyncProgress 手动同步进度
// PUT /api/v1/roadmaps/:id/progress
func (h *ProgressHandler) SyncProgress(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}

	var req dto.SyncProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.progressSvc.SyncProgress(c.Request.Context(), userID, id, *req.ProgressPercent)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ProgressHandler) handleProgressError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoadmapNotFound):
		response.NotFound(c, 20004, "学习路线不存在")
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 21001, "任务不存在")
	case errors.Is(err, service.ErrDayNotFound):
		response.NotFound(c, 21002, "每日计划不存在")
	case errors.Is(err, service.ErrProgressConflict):
		response.Conflict(c, 21003, "学习进度已被其他操作修改，请刷新后重试")
	default:
		c.Error(err)
		response.InternalError(c)
	}
}
