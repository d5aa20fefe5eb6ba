package domain

import "time"

// 表名
const (
	TableTempEmails     = "temp_emails"
	TableReceivedEmails = "received_emails"
)

// 临时邮箱的生命周期常量
const (
	PlanFree        = "free"         // 当前唯一的套餐类型
	AddressTTL      = 24 * time.Hour // 地址有效期
	CleanupInterval = time.Hour      // 过期清理周期
)

// 字段名（与存储层列名一致）
const (
	FieldID             = "id"
	FieldEmailAddress   = "email_address"
	FieldExpiresAt      = "expires_at"
	FieldIsActive       = "is_active"
	FieldPlanType       = "plan_type"
	FieldRecipientEmail = "recipient_email"
	FieldCreatedAt      = "created_at"
)

// TempEmail 表示一个已签发的临时邮箱地址。
type TempEmail struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EmailAddress string    `json:"email_address" gorm:"type:varchar(255);index"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	PlanType     string    `json:"plan_type" gorm:"type:varchar(32);default:free"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 返回 GORM 使用的表名
func (TempEmail) TableName() string {
	return TableTempEmails
}
