package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// WeekHandler 周次模块 HTTP 处理器
type WeekHandler struct {
	weekSvc service.WeekService
}

// NewWeekHandler 创建 WeekHandler
func NewWeekHandler(weekSvc service.WeekService) *WeekHandler {
	return &WeekHandler{weekSvc: weekSvc}
}

// SaveWeek 编辑或新增一周，其余周按新锚点重算
// PUT /api/v1/semesters/:id/weeks/:num
func (h *WeekHandler) SaveWeek(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	num, ok := mustWeekNum(c)
	if !ok {
		return
	}

	var req dto.SaveWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.weekSvc.Save(c.Request.Context(), ownerID, id, num, &req)
	if err != nil {
		h.handleWeekError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteWeek 删除一周及其任务
// DELETE /api/v1/semesters/:id/weeks/:num
func (h *WeekHandler) DeleteWeek(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	num, ok := mustWeekNum(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.weekSvc.Delete(c.Request.Context(), ownerID, id, num)
	if err != nil {
		h.handleWeekError(c, err)
		return
	}

	response.OK(c, resp)
}

// handleWeekError 统一处理周次模块业务错误
func (h *WeekHandler) handleWeekError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWeekNotFound):
		response.NotFound(c, 20003, "周次不存在")
	case errors.Is(err, service.ErrWeekNumInvalid):
		response.BadRequest(c, 20004, "周序号必须为正整数")
	case errors.Is(err, service.ErrWeekDateInvalid):
		response.BadRequest(c, 20005, "周次日期无效")
	default:
		handleCommonError(c, err)
	}
}
