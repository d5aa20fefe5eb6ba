package domain

import (
	"fmt"
	"time"
)

// ReceivedEmail 是外部收信流程写入的一封邮件。
//
// 除 recipient_email 与 created_at 外的字段不做解释，原样返回给调用方。
type ReceivedEmail map[string]interface{}

// RecipientEmail 返回收件地址
func (e ReceivedEmail) RecipientEmail() string {
	if v, ok := e[FieldRecipientEmail].(string); ok {
		return v
	}
	return ""
}

// CreatedAt 返回邮件的入库时间，无法解析时返回零值
func (e ReceivedEmail) CreatedAt() time.Time {
	switch v := e[FieldCreatedAt].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	case fmt.Stringer:
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// ReceivedEmailRecord 仅用于建表迁移，业务代码读取时使用 ReceivedEmail。
type ReceivedEmailRecord struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	RecipientEmail string    `gorm:"type:varchar(255);index"`
	Sender         string    `gorm:"type:varchar(255)"`
	Subject        string    `gorm:"type:varchar(500)"`
	BodyText       string    `gorm:"type:text"`
	BodyHTML       string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"index"`
}

// TableName 返回 GORM 使用的表名
func (ReceivedEmailRecord) TableName() string {
	return TableReceivedEmails
}
