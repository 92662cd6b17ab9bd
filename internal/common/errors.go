// Package common содержит общие для клиента и сервера ошибки.
// Сравнивать их нужно через errors.Is.
package common

import "errors"

var (
	// ErrValidation — данные не проходят проверку инвариантов записи. Не ретраится.
	ErrValidation = errors.New("validation error")
	// ErrNotFound — запись с таким id отсутствует. Не ретраится.
	ErrNotFound = errors.New("not found")

	// ErrRemoteUnavailable — сервер недоступен или ответил ошибкой (транзиентная ошибка).
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrTimeout — удалённый вызов не завершился за отведённое время.
	ErrTimeout = errors.New("timeout")
	// ErrPermissionDenied — операция над чужой записью или отозванный доступ.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized — нет активной сессии или токен невалиден.
	ErrUnauthorized = errors.New("unauthorized")
)
