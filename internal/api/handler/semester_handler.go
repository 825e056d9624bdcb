package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// SemesterHandler 学期模块 HTTP 处理器
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// ListSemesters 获取学期列表（最新创建的在前）
// GET /api/v1/semesters
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	semesters, err := h.semesterSvc.List(c.Request.Context(), ownerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": semesters})
}

// GetSemester 获取学期详情与周视图
// GET /api/v1/semesters/:id?course=
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	detail, err := h.semesterSvc.Get(c.Request.Context(), ownerID, id, c.Query("course"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, detail)
}

// CreateSemester 创建学期
// POST /api/v1/semesters
func (h *SemesterHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Create(c.Request.Context(), ownerID, &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, semester)
}

// UpdateSemester 重命名学期
// PUT /api/v1/semesters/:id
func (h *SemesterHandler) UpdateSemester(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Update(c.Request.Context(), ownerID, id, &req)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// DeleteSemester 删除学期及其全部数据
// DELETE /api/v1/semesters/:id
func (h *SemesterHandler) DeleteSemester(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	if err := h.semesterSvc.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListCourses 学期内出现过的课程（无任务时返回默认课程）
// GET /api/v1/semesters/:id/courses
func (h *SemesterHandler) ListCourses(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	courses, err := h.semesterSvc.Courses(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": courses})
}

// GetLastSemester 最近打开的学期
// GET /api/v1/semesters/last
func (h *SemesterHandler) GetLastSemester(c *gin.Context) {
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	last, err := h.semesterSvc.GetLast(c.Request.Context(), ownerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, last)
}

// SetLastSemester 记录最近打开的学期，semester_id 为 null 时清空
// PUT /api/v1/semesters/last
func (h *SemesterHandler) SetLastSemester(c *gin.Context) {
	var req dto.SetLastSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	if err := h.semesterSvc.SetLast(c.Request.Context(), ownerID, req.SemesterID); err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, dto.LastSemesterResponse{SemesterID: req.SemesterID})
}

// handleSemesterError 统一处理学期模块业务错误
func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNameRequired):
		response.BadRequest(c, 20002, "学期名称不能为空")
	default:
		handleCommonError(c, err)
	}
}
