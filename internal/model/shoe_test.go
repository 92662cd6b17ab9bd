package model

import (
	"testing"
	"time"

	"ShoeKeeper/internal/shoe"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShoe_ToRecord(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	s := Shoe{
		ID:         "id-1",
		UserID:     42,
		Title:      "Air Max",
		Price:      decimal.RequireFromString("120.50"),
		Category:   "Running",
		ImageRef:   "http://img/1.jpg",
		IsFavorite: true,
		CreatedAt:  created,
	}
	r := s.ToRecord()
	assert.Equal(t, "42", r.OwnerID)
	assert.Equal(t, shoe.Running, r.Category)
	assert.True(t, r.Price.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.True(t, r.CreatedAt.Equal(created))

	assert.Len(t, ToRecords([]Shoe{s, s}), 2)
	assert.Empty(t, ToRecords(nil))
}
