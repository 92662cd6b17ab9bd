package model

import (
	"strconv"
	"time"

	"ShoeKeeper/internal/shoe"

	"github.com/shopspring/decimal"
)

// Shoe — серверная модель записи инвентаря.
type Shoe struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID int64  `gorm:"not null;index"` // ссылка на users.id

	// Связи
	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Title      string          `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Category   string          `gorm:"not null;index"`
	ImageRef   string
	IsFavorite bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// OwnerID returns the owner in the form the API exposes it.
func OwnerID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ToRecord конвертирует модель в запись API.
func (s Shoe) ToRecord() shoe.Record {
	return shoe.Record{
		ID:         s.ID,
		OwnerID:    OwnerID(s.UserID),
		Title:      s.Title,
		Price:      s.Price,
		Category:   shoe.Category(s.Category),
		ImageRef:   s.ImageRef,
		IsFavorite: s.IsFavorite,
		CreatedAt:  s.CreatedAt.UTC(),
	}
}

// ToRecords converts a list preserving order.
func ToRecords(list []Shoe) []shoe.Record {
	out := make([]shoe.Record, 0, len(list))
	for _, s := range list {
		out = append(out, s.ToRecord())
	}
	return out
}
