package httptransport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// timestampLayout 毫秒精度的 UTC ISO 8601 时间格式
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HealthMessage 健康检查固定提示语
const HealthMessage = "PrivateInbox API is running!"

// ErrorResponse 失败响应：success=false 并携带错误信息
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CreateEmailResponse 新建地址响应
type CreateEmailResponse struct {
	Success   bool   `json:"success"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
	ID        string `json:"id"`
}

// ListEmailsResponse 收件箱列表响应
type ListEmailsResponse struct {
	Success bool          `json:"success"`
	Emails  []interface{} `json:"emails"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// OK 成功响应（200）
func OK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// InternalError 服务器内部错误（500），message 原样返回
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// NotFound 路由不存在（404）
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Success: false,
		Error:   "not found",
	})
}

// formatTimestamp 格式化响应中的时间字段
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
