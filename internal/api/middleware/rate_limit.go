package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edbrsk/uoc-planner/pkg/redis"
	"github.com/edbrsk/uoc-planner/pkg/response"
)

// RateLimit 基于 Redis 的导入限流中间件，按用户（无用户时按 IP）计数
// limit: 窗口内允许的最大请求数
// window: 窗口时长
// rdb 为 nil 或 limit<=0 时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if owner := c.GetString("owner_id"); owner != "" {
			subject = owner
		}
		key := fmt.Sprintf("%s:%s", c.FullPath(), subject)
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			response.TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
