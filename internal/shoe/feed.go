package shoe

import (
	"errors"

	"ShoeKeeper/internal/common"
)

// Типы сообщений live-канала.
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// Коды ошибок live-канала.
const (
	CodeUnauthorized     = "unauthorized"
	CodePermissionDenied = "permission_denied"
	CodeUnavailable      = "unavailable"
)

// FeedMessage — сообщение live-канала: полный снимок записей владельца или ошибка,
// после которой сервер закрывает соединение.
type FeedMessage struct {
	Type    string   `json:"type"`
	Records []Record `json:"records"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

// CodeFor maps an error to a feed error code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, common.ErrPermissionDenied):
		return CodePermissionDenied
	}
	return CodeUnavailable
}

// ErrorForCode is the inverse of CodeFor.
func ErrorForCode(code string) error {
	switch code {
	case CodeUnauthorized:
		return common.ErrUnauthorized
	case CodePermissionDenied:
		return common.ErrPermissionDenied
	}
	return common.ErrRemoteUnavailable
}
