package shoe

import (
	"testing"

	"ShoeKeeper/internal/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDraft_Validate(t *testing.T) {
	ok := Draft{Title: "Air Max", Price: decimal.RequireFromString("120.00"), Category: Running}
	assert.NoError(t, ok.Validate())

	cases := map[string]Draft{
		"empty title":      {Title: "", Price: decimal.Zero, Category: Boots},
		"blank title":      {Title: "   \t", Price: decimal.Zero, Category: Boots},
		"negative price":   {Title: "x", Price: decimal.RequireFromString("-0.01"), Category: Boots},
		"unknown category": {Title: "x", Price: decimal.Zero, Category: "Slippers"},
		"empty category":   {Title: "x", Price: decimal.Zero},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, d.Validate(), common.ErrValidation)
		})
	}
}

func TestPatch_ValidateOnlyPresentFields(t *testing.T) {
	assert.NoError(t, Patch{}.Validate())

	empty := " "
	assert.ErrorIs(t, Patch{Title: &empty}.Validate(), common.ErrValidation)

	neg := decimal.NewFromInt(-1)
	assert.ErrorIs(t, Patch{Price: &neg}.Validate(), common.ErrValidation)

	bad := Category("Sandals")
	assert.ErrorIs(t, Patch{Category: &bad}.Validate(), common.ErrValidation)

	// избранное не валидируется
	fav := true
	assert.NoError(t, Patch{IsFavorite: &fav}.Validate())
}

func TestPatch_ApplyInverseMatches(t *testing.T) {
	orig := Record{ID: "1", Title: "Old", Price: decimal.NewFromInt(10), Category: Boots}
	title := "  New  "
	fav := true
	p := Patch{Title: &title, IsFavorite: &fav}

	got := p.Apply(orig)
	assert.Equal(t, "New", got.Title)
	assert.True(t, got.IsFavorite)
	assert.True(t, got.Price.Equal(orig.Price))
	assert.True(t, p.Matches(got))
	assert.False(t, p.Matches(orig))

	back := p.Inverse(orig).Apply(got)
	assert.Equal(t, orig, back)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("boots")
	assert.NoError(t, err)
	assert.Equal(t, Boots, c)

	_, err = ParseCategory("heels")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestPatch_RevertSkipsFieldsChangedLater(t *testing.T) {
	prev := Record{ID: "1", Title: "A", IsFavorite: false, Category: Boots}
	title := "B"
	fav := true
	p := Patch{Title: &title, IsFavorite: &fav}
	cur := p.Apply(prev)

	// после p кто-то ещё поменял заголовок
	cur.Title = "C"

	got := p.Revert(cur, prev)
	assert.Equal(t, "C", got.Title)
	assert.False(t, got.IsFavorite)
	assert.Equal(t, Boots, got.Category)
}
