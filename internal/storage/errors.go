package storage

import (
	"fmt"
	"net/http"
)

// APIError 是远程存储返回的错误，Error() 只包含服务端给出的消息文本。
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("store request failed: %d %s", e.Status, http.StatusText(e.Status))
}
