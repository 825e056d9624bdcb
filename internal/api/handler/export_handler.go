package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// ExportHandler 表格与日历导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSpreadsheet 导出学期为 Excel
// GET /api/v1/semesters/:id/export.xlsx
func (h *ExportHandler) ExportSpreadsheet(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	file, err := h.exportSvc.Spreadsheet(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ExportCalendar 导出截止日期为 iCalendar
// GET /api/v1/semesters/:id/calendar.ics
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	file, err := h.exportSvc.Calendar(c.Request.Context(), ownerID, id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// ImportCalendar 将 .ics 事件追加为截止日期
// POST /api/v1/semesters/:id/calendar/import?course=
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"
//   - 原始请求体: text/calendar
func (h *ExportHandler) ImportCalendar(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	var body io.Reader = c.Request.Body
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		body = file
	}

	resp, err := h.exportSvc.ImportCalendar(c.Request.Context(), ownerID, id, body, c.Query("course"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Created(c, resp)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCalendarInvalid):
		response.BadRequest(c, 60101, "日历文件无效")
	case errors.Is(err, service.ErrCalendarEmpty):
		response.BadRequest(c, 60102, "日历中没有可导入的事件")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
