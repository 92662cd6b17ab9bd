package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/model"
	"ShoeKeeper/internal/repo"
	"ShoeKeeper/internal/shoe"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier сообщает подписчикам владельца об изменении его записей.
type Notifier interface {
	Publish(ctx context.Context, ownerID string) error
}

// ShoeService инкапсулирует бизнес-логику работы с записями.
type ShoeService struct {
	repo     repo.ShoeRepository
	notifier Notifier
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewShoeService(r repo.ShoeRepository, n Notifier, logger *zap.SugaredLogger) *ShoeService {
	return &ShoeService{repo: r, notifier: n, logger: logger, now: time.Now}
}

// List возвращает записи пользователя в порядке создания, отфильтрованные по f.
func (s *ShoeService) List(ctx context.Context, userID int64, f shoe.Filter) ([]shoe.Record, error) {
	list, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shoes: %w", err)
	}
	return shoe.Project(model.ToRecords(list), f), nil
}

// Create сохраняет новую запись. createdAt клиента принимается, если задан.
func (s *ShoeService) Create(ctx context.Context, userID int64, fields shoe.Fields) (shoe.Record, error) {
	if err := fields.Draft.Validate(); err != nil {
		return shoe.Record{}, err
	}
	d := fields.Draft.Normalize()
	created := fields.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	m := &model.Shoe{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      d.Title,
		Price:      d.Price,
		Category:   string(d.Category),
		ImageRef:   d.ImageRef,
		IsFavorite: fields.IsFavorite,
		CreatedAt:  created.UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return shoe.Record{}, fmt.Errorf("create shoe: %w", err)
	}
	s.publish(ctx, userID)
	return m.ToRecord(), nil
}

// Update применяет частичное изменение к записи пользователя.
func (s *ShoeService) Update(ctx context.Context, userID int64, id string, patch shoe.Patch) (shoe.Record, error) {
	if err := patch.Validate(); err != nil {
		return shoe.Record{}, err
	}
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return shoe.Record{}, err
	}
	if patch.Empty() {
		return current.ToRecord(), nil
	}
	if err := s.repo.Update(ctx, id, columns(patch)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shoe.Record{}, fmt.Errorf("%w: shoe %s", common.ErrNotFound, id)
		}
		return shoe.Record{}, fmt.Errorf("update shoe: %w", err)
	}
	s.publish(ctx, userID)
	return patch.Apply(current.ToRecord()), nil
}

// Delete удаляет запись пользователя.
func (s *ShoeService) Delete(ctx context.Context, userID int64, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: shoe %s", common.ErrNotFound, id)
		}
		return fmt.Errorf("delete shoe: %w", err)
	}
	s.publish(ctx, userID)
	return nil
}

// owned загружает запись и проверяет владельца.
func (s *ShoeService) owned(ctx context.Context, userID int64, id string) (*model.Shoe, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: shoe %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get shoe: %w", err)
	}
	if m.UserID != userID {
		return nil, fmt.Errorf("%w: shoe %s", common.ErrPermissionDenied, id)
	}
	return m, nil
}

// publish только логирует ошибки брокера.
func (s *ShoeService) publish(ctx context.Context, userID int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, model.OwnerID(userID)); err != nil {
		s.logger.Warnw("publish change failed", "user_id", userID, "error", err)
	}
}

func columns(p shoe.Patch) map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Category != nil {
		cols["category"] = string(*p.Category)
	}
	if p.ImageRef != nil {
		cols["image_ref"] = *p.ImageRef
	}
	if p.IsFavorite != nil {
		cols["is_favorite"] = *p.IsFavorite
	}
	return cols
}
