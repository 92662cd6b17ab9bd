package collection

import (
	"context"

	"ShoeKeeper/internal/shoe"
)

// Event — одно сообщение подписки: полный набор записей владельца либо ошибка потока.
// После события с Err поток считается завершённым.
type Event struct {
	Records []shoe.Record
	Err     error
}

// Remote — удалённое хранилище записей.
type Remote interface {
	// Create сохраняет новую запись владельца и возвращает присвоенный id.
	Create(ctx context.Context, ownerID string, fields shoe.Fields) (string, error)
	// Update применяет частичное изменение.
	Update(ctx context.Context, id string, patch shoe.Patch) error
	// Delete удаляет запись.
	Delete(ctx context.Context, id string) error
	// Subscribe открывает поток снимков. Канал закрывается, когда ctx завершён или поток упал.
	Subscribe(ctx context.Context, ownerID string) (<-chan Event, error)
}
