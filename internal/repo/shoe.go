package repo

import (
	"context"

	"ShoeKeeper/internal/model"

	"gorm.io/gorm"
)

// ShoeRepository определяет контракт доступа к Shoe для слоя сервиса.
// Отсутствующая запись всегда возвращается как gorm.ErrRecordNotFound.
type ShoeRepository interface {
	Create(ctx context.Context, s *model.Shoe) error
	GetByID(ctx context.Context, id string) (*model.Shoe, error)
	// ListByOwner возвращает записи пользователя в порядке создания.
	ListByOwner(ctx context.Context, userID int64) ([]model.Shoe, error)
	// Update обновляет перечисленные столбцы.
	Update(ctx context.Context, id string, columns map[string]any) error
	Delete(ctx context.Context, id string) error
}

type shoeRepo struct {
	db *gorm.DB
}

// NewShoeRepository создаёт реализацию репозитория для Shoe.
func NewShoeRepository(db *gorm.DB) ShoeRepository {
	return &shoeRepo{db: db}
}

func (r *shoeRepo) Create(ctx context.Context, s *model.Shoe) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shoeRepo) GetByID(ctx context.Context, id string) (*model.Shoe, error) {
	var s model.Shoe
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shoeRepo) ListByOwner(ctx context.Context, userID int64) ([]model.Shoe, error) {
	list := make([]model.Shoe, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *shoeRepo) Update(ctx context.Context, id string, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(&model.Shoe{}).Where("id = ?", id).Updates(columns)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *shoeRepo) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Shoe{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
