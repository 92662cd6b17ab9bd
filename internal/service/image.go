package service

import (
	"context"
	"fmt"

	"ShoeKeeper/internal/images"
	"ShoeKeeper/internal/model"
	"ShoeKeeper/internal/repo"

	"go.uber.org/zap"
)

// ImageProcessor приводит загрузку к сохраняемому формату.
type ImageProcessor interface {
	Process(data []byte) ([]byte, error)
}

// ImageService принимает загрузки изображений и возвращает их imageRef.
type ImageService struct {
	processor ImageProcessor
	store     images.Store
	repo      repo.ImageRepository
	logger    *zap.SugaredLogger
}

func NewImageService(p ImageProcessor, s images.Store, r repo.ImageRepository, logger *zap.SugaredLogger) *ImageService {
	return &ImageService{processor: p, store: s, repo: r, logger: logger}
}

// Upload обрабатывает изображение, кладёт его в хранилище и запоминает владельца.
func (s *ImageService) Upload(ctx context.Context, userID int64, data []byte) (string, error) {
	out, err := s.processor.Process(data)
	if err != nil {
		return "", err
	}
	key := images.NewKey(model.OwnerID(userID))
	url, err := s.store.Put(ctx, key, images.ContentTypeJPEG, out)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	if _, err := s.repo.CreateIfAbsent(ctx, &model.Image{
		Key:         key,
		UserID:      userID,
		URL:         url,
		ContentType: images.ContentTypeJPEG,
		Size:        int64(len(out)),
	}); err != nil {
		return "", fmt.Errorf("save image metadata: %w", err)
	}
	s.logger.Infow("image uploaded", "user_id", userID, "key", key, "bytes", len(out))
	return url, nil
}
