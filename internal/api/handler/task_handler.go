package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// TaskHandler 任务模块 HTTP 处理器
type TaskHandler struct {
	taskSvc service.TaskService
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.TaskService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc}
}

// ListTasks 任务列表
// GET /api/v1/semesters/:id/tasks?week=&course=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	week := 0
	if raw := c.Query("week"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, 20004, "周序号必须为正整数")
			return
		}
		week = n
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	tasks, err := h.taskSvc.List(c.Request.Context(), ownerID, id, week, c.Query("course"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, gin.H{"list": tasks})
}

// CreateTask 新增任务，追加到该周末尾
// POST /api/v1/semesters/:id/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.taskSvc.Create(c.Request.Context(), ownerID, id, &req)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.Created(c, resp)
}

// UpdateTask 修改任务
// PUT /api/v1/semesters/:id/tasks/:taskId
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.taskSvc.Update(c.Request.Context(), ownerID, id, c.Param("taskId"), &req)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, resp)
}

// ToggleTask 勾选 / 取消勾选
// PATCH /api/v1/semesters/:id/tasks/:taskId/done
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.ToggleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.taskSvc.Toggle(c.Request.Context(), ownerID, id, c.Param("taskId"), *req.Done)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, resp)
}

// DeleteTask 删除任务及其笔记
// DELETE /api/v1/semesters/:id/tasks/:taskId
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.taskSvc.Delete(c.Request.Context(), ownerID, id, c.Param("taskId"))
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, resp)
}

// ResetTasks 重置学期进度
// POST /api/v1/semesters/:id/tasks/reset
func (h *TaskHandler) ResetTasks(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.taskSvc.Reset(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	response.OK(c, resp)
}

// handleTaskError 统一处理任务模块业务错误
func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 30001, "任务不存在")
	case errors.Is(err, service.ErrTaskTextRequired):
		response.BadRequest(c, 30002, "任务内容不能为空")
	case errors.Is(err, service.ErrCourseRequired):
		response.BadRequest(c, 30003, "课程不能为空")
	case errors.Is(err, service.ErrWeekNotFound):
		response.NotFound(c, 20003, "周次不存在")
	default:
		handleCommonError(c, err)
	}
}
