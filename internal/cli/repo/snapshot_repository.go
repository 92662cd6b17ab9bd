package repo

import (
	"time"

	"ShoeKeeper/internal/shoe"
)

// SnapshotRepository — локальный кэш последнего снимка записей пользователя.
type SnapshotRepository interface {
	// SaveSnapshot заменяет сохранённый снимок владельца целиком.
	SaveSnapshot(owner string, records []shoe.Record) error
	// LoadSnapshot возвращает сохранённый снимок и время его получения.
	// Пустой кэш — пустой слайс и нулевое время.
	LoadSnapshot(owner string) ([]shoe.Record, time.Time, error)
	Close() error
}
