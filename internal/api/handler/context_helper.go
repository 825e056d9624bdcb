package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/internal/service"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// OwnerIDKey Owner 中间件写入 gin.Context 的键
const OwnerIDKey = "owner_id"

// MustGetOwnerID 从 Gin 上下文中安全提取 owner_id。
// 如果 Owner 中间件未注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetOwnerID(c *gin.Context) (string, bool) {
	v, exists := c.Get(OwnerIDKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustSemesterID 读取路径参数 :id
func mustSemesterID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学期ID不能为空")
		return "", false
	}
	return id, true
}

// mustWeekNum 读取路径参数 :num，必须为正整数
func mustWeekNum(c *gin.Context) (int, bool) {
	num, err := strconv.Atoi(c.Param("num"))
	if err != nil || num <= 0 {
		response.BadRequest(c, 20004, "周序号必须为正整数")
		return 0, false
	}
	return num, true
}

// handleCommonError 各模块共享的错误映射，未识别的错误返回 500
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 20001, "学期不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20009, "学期已被其他请求修改，请刷新后重试")
	case errors.Is(err, service.ErrCascadeFailed):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 20010, "级联删除失败，已回滚", err.Error())
	default:
		response.InternalError(c)
	}
}
