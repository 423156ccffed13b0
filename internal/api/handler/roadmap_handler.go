package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmeeeeedddddd/Studify/internal/api/middleware"
	"github.com/ahmeeeeedddddd/Studify/internal/dto"
	"github.com/ahmeeeeedddddd/Studify/internal/service"
	"github.com/ahmeeeeedddddd/Studify/pkg/aigen"
	"github.com/ahmeeeeedddddd/Studify/pkg/response"
)

// RoadmapHandler 学习路线模块 HTTP 处理器
type RoadmapHandler struct {
	roadmapSvc service.RoadmapService
}

// NewRoadmapHandler 创建 RoadmapHandler
func NewRoadmapHandler(roadmapSvc service.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmapSvc: roadmapSvc}
}

// Generate 生成学习路线
// POST /api/v1/roadmaps
func (h *RoadmapHandler) Generate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GenerateRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return
	}

	result, err := h.roadmapSvc.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleRoadmapError(c, err)
		return
	}

	response.Created(c, result)
}

// ListMine 我的学习路线
// GET /api/v1/roadmaps
func (h *RoadmapHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.roadmapSvc.ListMine(c.Request.Context(), userID, &page)
	if err != nil {
		h.handleRoadmapError(c, err)
		return
	}

	response.OK(c, list)
}

// Get 学习路线详情
// GET /api/v1/roadmaps/:id
func (h *RoadmapHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.roadmapSvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.handleRoadmapError(c, err)
		return
	}

	response.OK(c, detail)
}

// GetQuiz 某天的测验
// GET /api/v1/roadmaps/:id/days/:day/quiz
func (h *RoadmapHandler) GetQuiz(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := MustGetParam(c, "id")
	if !ok {
		return
	}
	day, ok := MustGetPositiveIntParam(c, "day")
	if !ok {
		return
	}

	quiz, err := h.roadmapSvc.GetQuiz(c.Request.Context(), userID, id, day)
	if err != nil {
		h.handleRoadmapError(c, err)
		return
	}

	response.OK(c, quiz)
}

// Probe 生成服务连通性探测
// GET /api/v1/generator/probe
// 探测到不可达仍返回 200，由 reachable 字段表达结果
func (h *RoadmapHandler) Probe(c *gin.Context) {
	result, err := h.roadmapSvc.Probe(c.Request.Context())
	if result == nil {
		h.handleRoadmapError(c, err)
		return
	}
	if err != nil {
		c.Error(err)
	}
	response.OK(c, result)
}

// handleRoadmapError 超时须先于不可用判断：ErrTimeout 包装了 ErrServiceUnavailable
func (h *RoadmapHandler) handleRoadmapError(c *gin.Context, err error) {
	var httpErr *aigen.HTTPError
	switch {
	case errors.Is(err, service.ErrCourseRequired):
		response.BadRequest(c, 20001, "课程名称不能为空")
	case errors.Is(err, service.ErrInvalidDuration):
		response.BadRequest(c, 20002, "自定义时长必须为正整数天数")
	case errors.Is(err, service.ErrRoadmapNotFound):
		response.NotFound(c, 20004, "学习路线不存在")
	case errors.Is(err, service.ErrQuizNotFound):
		response.NotFound(c, 20005, "该天没有测验")
	case errors.Is(err, aigen.ErrTimeout):
		response.GatewayTimeout(c, 20010, "AI 生成服务响应超时，请稍后重试")
	case errors.As(err, &httpErr):
		response.BadGateway(c, 20011, "AI 生成服务不可用", fmt.Sprintf("upstream status %d", httpErr.StatusCode))
	case errors.Is(err, aigen.ErrServiceUnavailable):
		response.BadGateway(c, 20011, "AI 生成服务不可用", "")
	case errors.Is(err, service.ErrPersistenceFailure):
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, 20020, "学习路线保存失败")
	default:
		c.Error(err)
		response.InternalError(c)
	}
}
