package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// NoteHandler 笔记模块 HTTP 处理器
type NoteHandler struct {
	noteSvc service.NoteService
}

// NewNoteHandler 创建 NoteHandler
func NewNoteHandler(noteSvc service.NoteService) *NoteHandler {
	return &NoteHandler{noteSvc: noteSvc}
}

// ListNotes 笔记列表
// GET /api/v1/semesters/:id/notes?task_id=
func (h *NoteHandler) ListNotes(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	notes, err := h.noteSvc.List(c.Request.Context(), ownerID, id, c.Query("task_id"))
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, gin.H{"list": notes})
}

// CreateNote 为任务添加笔记
// POST /api/v1/semesters/:id/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	note, err := h.noteSvc.Create(c.Request.Context(), ownerID, id, &req)
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.Created(c, note)
}

// UpdateNote 修改笔记内容
// PUT /api/v1/semesters/:id/notes/:noteId
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}

	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	note, err := h.noteSvc.Update(c.Request.Context(), ownerID, id, c.Param("noteId"), &req)
	if err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, note)
}

// DeleteNote 删除笔记
// DELETE /api/v1/semesters/:id/notes/:noteId
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	if err := h.noteSvc.Delete(c.Request.Context(), ownerID, id, c.Param("noteId")); err != nil {
		h.handleNoteError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleNoteError 统一处理笔记模块业务错误
func (h *NoteHandler) handleNoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		response.NotFound(c, 50001, "笔记不存在")
	case errors.Is(err, service.ErrNoteTextRequired):
		response.BadRequest(c, 50002, "笔记内容不能为空")
	case errors.Is(err, service.ErrTaskNotFound):
		response.NotFound(c, 30001, "任务不存在")
	default:
		handleCommonError(c, err)
	}
}
