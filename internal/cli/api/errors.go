package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ShoeKeeper/internal/common"
)

// ErrLoginTaken — сервер ответил 409 на регистрацию.
var ErrLoginTaken = errors.New("login already taken")

// errorFromStatus переводит HTTP-статус ответа в sentinel-ошибку.
func errorFromStatus(status int, body []byte) error {
	msg := serverMessage(body)
	var base error
	switch {
	case status == http.StatusBadRequest:
		base = common.ErrValidation
	case status == http.StatusUnauthorized:
		base = common.ErrUnauthorized
	case status == http.StatusForbidden:
		base = common.ErrPermissionDenied
	case status == http.StatusNotFound:
		base = common.ErrNotFound
	case status == http.StatusConflict:
		base = ErrLoginTaken
	case status == http.StatusRequestEntityTooLarge:
		base = common.ErrValidation
		if msg == "" {
			msg = "image too large"
		}
	case status == http.StatusTooManyRequests:
		base = common.ErrRemoteUnavailable
		if msg == "" {
			msg = "rate limited"
		}
	default:
		base = common.ErrRemoteUnavailable
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("%w: %s (status %d)", base, msg, status)
}

func serverMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return ""
}

// transportError оборачивает сетевую ошибку. Таймаут контекста остаётся различимым через errors.Is.
func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
}
