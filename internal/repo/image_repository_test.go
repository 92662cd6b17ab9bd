package repo

import (
	"ShoeKeeper/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageRepository_CreateIfAbsent_Idempotent(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, 1)
	r := NewImageRepository(db)
	ctx := context.Background()

	// первая вставка — created=true
	created, err := r.CreateIfAbsent(ctx, &model.Image{Key: "shoes/1/a.jpg", UserID: 1, URL: "http://x/a.jpg"})
	assert.NoError(t, err)
	assert.True(t, created)

	// повторная — created=false
	created, err = r.CreateIfAbsent(ctx, &model.Image{Key: "shoes/1/a.jpg", UserID: 1, URL: "http://x/other.jpg"})
	assert.NoError(t, err)
	assert.False(t, created)

	list, err := r.ListByOwner(ctx, 1)
	assert.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, "http://x/a.jpg", list[0].URL)
	}
}
