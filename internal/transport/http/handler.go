package httptransport

import (
	"time"

	"github.com/gin-gonic/gin"

	"privateinbox/backend/internal/service"
)

// Handler 聚合 API 处理逻辑。
type Handler struct {
	addresses *service.AddressService
	now       func() time.Time
}

// NewHandler 创建处理器
func NewHandler(addresses *service.AddressService) *Handler {
	return &Handler{
		addresses: addresses,
		now:       time.Now,
	}
}

// generateEmail 签发一个新的临时地址
//
// POST /api/generate-email
func (h *Handler) generateEmail(c *gin.Context) {
	created, err := h.addresses.Create(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		InternalError(c, err.Error())
		return
	}

	OK(c, CreateEmailResponse{
		Success:   true,
		Email:     created.Email,
		ExpiresAt: formatTimestamp(created.ExpiresAt),
		ID:        created.ID,
	})
}

// listEmails 返回某个地址收到的全部邮件，最新的在前
//
// GET /api/emails/:emailAddress
func (h *Handler) listEmails(c *gin.Context) {
	address := c.Param("emailAddress")

	emails, err := h.addresses.ListMessages(c.Request.Context(), address)
	if err != nil {
		_ = c.Error(err)
		InternalError(c, err.Error())
		return
	}

	items := make([]interface{}, 0, len(emails))
	for _, e := range emails {
		items = append(items, e)
	}

	OK(c, ListEmailsResponse{
		Success: true,
		Emails:  items,
	})
}

// health 进程存活提示，不访问存储
//
// GET /api/health
func (h *Handler) health(c *gin.Context) {
	OK(c, HealthResponse{
		Success:   true,
		Message:   HealthMessage,
		Timestamp: formatTimestamp(h.now()),
	})
}
