package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"privateinbox/backend/internal/monitoring"
)

// HTTPMetrics HTTP 指标中间件
//
// 未匹配任何路由的请求统一记为 "unmatched"，避免路径参数撑爆标签基数。
func HTTPMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
