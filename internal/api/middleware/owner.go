package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/config"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// ownerIDMaxLen 限制网关传入的用户 ID 长度
const ownerIDMaxLen = 128

// Owner 解析数据归属者
//   - remote 模式：上游网关通过 X-User-ID 注入已认证的用户 ID，缺失时 401
//   - local 模式：单用户，固定为 localUser
func Owner(mode, localUser string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode == config.StorageLocal {
			c.Set("owner_id", localUser)
			c.Next()
			return
		}

		ownerID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if ownerID == "" {
			response.Unauthorized(c, 10002, "缺少用户标识")
			c.Abort()
			return
		}
		if len(ownerID) > ownerIDMaxLen {
			response.Unauthorized(c, 10002, "用户标识无效")
			c.Abort()
			return
		}

		c.Set("owner_id", ownerID)
		c.Next()
	}
}
