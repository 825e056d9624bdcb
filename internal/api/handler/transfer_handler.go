package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/service"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// TransferHandler JSON 导入导出与路线图 HTTP 处理器
type TransferHandler struct {
	transferSvc service.TransferService
	roadmapSvc  service.RoadmapService
}

// NewTransferHandler 创建 TransferHandler
func NewTransferHandler(transferSvc service.TransferService, roadmapSvc service.RoadmapService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc, roadmapSvc: roadmapSvc}
}

// PreviewImport 校验导入文档并返回摘要，不写入数据
// POST /api/v1/import/preview
func (h *TransferHandler) PreviewImport(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}

	preview, err := h.transferSvc.Preview(c.Request.Context(), raw)
	if err != nil {
		handleTransferError(c, err)
		return
	}

	response.OK(c, preview)
}

// Import 校验并导入为新学期
// POST /api/v1/import
func (h *TransferHandler) Import(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	resp, err := h.transferSvc.Import(c.Request.Context(), ownerID, raw)
	if err != nil {
		handleTransferError(c, err)
		return
	}

	response.Created(c, resp)
}

// Export 导出学期为 JSON 文档（附件）
// GET /api/v1/semesters/:id/export
func (h *TransferHandler) Export(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	file, err := h.transferSvc.Export(c.Request.Context(), ownerID, id)
	if err != nil {
		handleTransferError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// GetRoadmap 路线图泳道布局
// GET /api/v1/semesters/:id/roadmap
func (h *TransferHandler) GetRoadmap(c *gin.Context) {
	id, ok := mustSemesterID(c)
	if !ok {
		return
	}
	ownerID, ok := MustGetOwnerID(c)
	if !ok {
		return
	}

	roadmap, err := h.roadmapSvc.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, roadmap)
}

// readBody 读取完整请求体；超过 BodyLimit 时返回 413
func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return nil, false
		}
		response.BadRequest(c, 10001, "读取请求体失败")
		return nil, false
	}
	if len(raw) == 0 {
		response.BadRequest(c, 60002, "请求体为空")
		return nil, false
	}
	return raw, true
}

// handleTransferError 导入错误返回 422，details 为出错字段
func handleTransferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportInvalid):
		var verr *planner.ValidationError
		if errors.As(err, &verr) {
			response.UnprocessableEntity(c, 60001, verr.Message, verr.Field)
			return
		}
		response.UnprocessableEntity(c, 60001, "导入文件无效", "")
	default:
		handleCommonError(c, err)
	}
}
