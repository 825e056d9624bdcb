package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// DeadlineHandler 截止日期模块 HTTP 处理器
type DeadlineHandler struct {
	deadlineSvc service.DeadlineService
}

// NewDeadlineHandler 创建 DeadlineHandler
func NewDeadlineHandler(deadlineSvc service.DeadlineService) *DeadlineHandler {
	return &DeadlineHandler{deadlineSvc: deadlineSvc}
}

// ListDeadlines 截止日期列表，附带倒计时
// GET /api/v1/semesters/:id/deadlines
func (h *DeadlineHandler) ListDeadlines(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	deadlines, err := h.deadlineSvc.List(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleDeadlineError(c, err)
		return
	}

	response.OK(c, gin.H{"list": deadlines})
}

// CreateDeadline 新增截止日期
// POST /api/v1/semesters/:id/deadlines
func (h *DeadlineHandler) CreateDeadline(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.CreateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.deadlineSvc.Create(c.Request.Context(), ownerID, id, &req)
	if err != nil {
		h.handleDeadlineError(c, err)
		return
	}

	response.Created(c, resp)
}

// UpdateDeadline 修改截止日期
// PUT /api/v1/semesters/:id/deadlines/:deadlineId
func (h *DeadlineHandler) UpdateDeadline(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.UpdateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.deadlineSvc.Update(c.Request.Context(), ownerID, id, c.Param("deadlineId"), &req)
	if err != nil {
		h.handleDeadlineError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteDeadline 删除截止日期
// DELETE /api/v1/semesters/:id/deadlines/:deadlineId
func (h *DeadlineHandler) DeleteDeadline(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.deadlineSvc.Delete(c.Request.Context(), ownerID, id, c.Param("deadlineId"))
	if err != nil {
		h.handleDeadlineError(c, err)
		return
	}

	response.OK(c, resp)
}

// handleDeadlineError 统一处理截止日期模块业务错误
func (h *DeadlineHandler) handleDeadlineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeadlineNotFound):
		response.NotFound(c, 40001, "截止日期不存在")
	case errors.Is(err, service.ErrDeadlineDateInvalid):
		response.BadRequest(c, 40002, "截止日期格式无效，需要 YYYY-MM-DD")
	case errors.Is(err, service.ErrDeadlineLabelRequired):
		response.BadRequest(c, 40003, "截止日期标题不能为空")
	case errors.Is(err, service.ErrCourseRequired):
		response.BadRequest(c, 30003, "课程不能为空")
	default:
		handleCommonError(c, err)
	}
}
