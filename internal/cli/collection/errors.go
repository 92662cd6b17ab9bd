package collection

import (
	"errors"
	"fmt"
)

// ErrClosed — у коллекции нет активной подписки.
var ErrClosed = errors.New("subscription closed")

// Op — вид оптимистичной мутации.
type Op string

const (
	OpAdd            Op = "add"
	OpUpdate         Op = "update"
	OpToggleFavorite Op = "toggle_favorite"
	OpRemove         Op = "remove"
)

// MutationError — удалённая часть мутации не удалась; локальный эффект уже откатан
// (если снимок не был заменён сервером раньше).
type MutationError struct {
	Op  Op
	ID  string
	Err error
	// RolledBack is false when a newer snapshot made the rollback unnecessary.
	RolledBack bool
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// SubscriptionError — подписка не восстановилась после повторной попытки.
type SubscriptionError struct {
	Identity string
	Err      error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for %s: %v", e.Identity, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
