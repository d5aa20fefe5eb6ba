package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReceivedEmail(t *testing.T) {
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		mail ReceivedEmail
		want time.Time
	}{
		{name: "time 值", mail: ReceivedEmail{FieldCreatedAt: created}, want: created},
		{name: "RFC3339 字符串", mail: ReceivedEmail{FieldCreatedAt: "2024-01-01T08:00:00Z"}, want: created},
		{name: "无法解析", mail: ReceivedEmail{FieldCreatedAt: "yesterday"}, want: time.Time{}},
		{name: "缺失", mail: ReceivedEmail{}, want: time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(tc.mail.CreatedAt()))
		})
	}

	assert.Equal(t, "a@b.io", ReceivedEmail{FieldRecipientEmail: "a@b.io"}.RecipientEmail())
	assert.Equal(t, "", ReceivedEmail{FieldRecipientEmail: 7}.RecipientEmail())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "temp_emails", TempEmail{}.TableName())
	assert.Equal(t, "received_emails", ReceivedEmailRecord{}.TableName())
}
