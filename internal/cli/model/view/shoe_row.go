package view

import (
	"time"

	"ShoeKeeper/internal/shoe"
)

// ShoeRow — DTO для отображения записи в CLI.
type ShoeRow struct {
	ID       string
	Title    string
	Price    string
	Category string
	Favorite string
	Image    string
	Created  string
}

// FromRecord готовит запись к выводу: цена с двумя знаками, дата в локальном времени.
func FromRecord(r shoe.Record) ShoeRow {
	fav := ""
	if r.IsFavorite {
		fav = "*"
	}
	created := ""
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.Local().Format(time.DateTime)
	}
	return ShoeRow{
		ID:       r.ID,
		Title:    r.Title,
		Price:    r.Price.StringFixed(2),
		Category: string(r.Category),
		Favorite: fav,
		Image:    r.ImageRef,
		Created:  created,
	}
}

// FromRecords converts a snapshot in order.
func FromRecords(rs []shoe.Record) []ShoeRow {
	out := make([]ShoeRow, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRecord(r))
	}
	return out
}
