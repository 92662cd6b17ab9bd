package view

import (
	"testing"

	"ShoeKeeper/internal/shoe"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromRecord(t *testing.T) {
	row := FromRecord(shoe.Record{ID: "1", Title: "Air", Price: decimal.RequireFromString("9.5"), Category: shoe.Running, IsFavorite: true})
	assert.Equal(t, "9.50", row.Price)
	assert.Equal(t, "*", row.Favorite)
	assert.Equal(t, "Running", row.Category)
	assert.Empty(t, row.Created)

	assert.Empty(t, FromRecord(shoe.Record{}).Favorite)
	assert.Len(t, FromRecords([]shoe.Record{{ID: "a"}, {ID: "b"}}), 2)
}
