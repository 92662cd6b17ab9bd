package repo

import (
	"context"

	"ShoeKeeper/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageRepository хранит метаданные загруженных изображений.
type ImageRepository interface {
	// CreateIfAbsent пытается создать запись. Если существует — ничего не делает.
	// Возвращает created=true если запись была создана в этой операции.
	CreateIfAbsent(ctx context.Context, img *model.Image) (created bool, err error)
	// ListByOwner возвращает изображения пользователя, новые последними.
	ListByOwner(ctx context.Context, userID int64) ([]model.Image, error)
}

type imageRepo struct {
	db *gorm.DB
}

// NewImageRepository создаёт реализацию репозитория для Image.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) CreateIfAbsent(ctx context.Context, img *model.Image) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(img)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *imageRepo) ListByOwner(ctx context.Context, userID int64) ([]model.Image, error) {
	list := make([]model.Image, 0)
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("key ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
