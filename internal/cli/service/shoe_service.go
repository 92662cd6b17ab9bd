package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ShoeKeeper/internal/cli/collection"
	"ShoeKeeper/internal/cli/repo"
	"ShoeKeeper/internal/cli/session"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/shoe"

	"go.uber.org/zap"
)

// ErrNotSignedIn — команда требует входа.
var ErrNotSignedIn = fmt.Errorf("%w: not signed in, run login or register first", common.ErrUnauthorized)

// Uploader загружает файл изображения и возвращает imageRef.
type Uploader interface {
	UploadImage(ctx context.Context, path string) (string, error)
}

// CacheOpener открывает кэш снимков пользователя.
type CacheOpener func(owner string) (repo.SnapshotRepository, error)

// ShoeService — юзкейсы CLI поверх синхронизированной коллекции и локального кэша.
type ShoeService struct {
	coll      *collection.Collection
	sessions  *session.Store
	uploader  Uploader
	openCache CacheOpener
	logger    *zap.SugaredLogger

	stop  func()
	cache repo.SnapshotRepository
	owner string
}

func NewShoeService(coll *collection.Collection, sessions *session.Store, uploader Uploader, openCache CacheOpener, logger *zap.SugaredLogger) *ShoeService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ShoeService{coll: coll, sessions: sessions, uploader: uploader, openCache: openCache, logger: logger}
}

// Open подписывает коллекцию на текущую сессию и ждёт первый снимок.
func (s *ShoeService) Open(ctx context.Context) error {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return ErrNotSignedIn
	}
	s.owner = sess.UserID
	if s.openCache != nil {
		cache, err := s.openCache(sess.UserID)
		if err != nil {
			s.logger.Warnw("snapshot cache unavailable", "error", err)
		} else {
			s.cache = cache
		}
	}

	s.stop = s.coll.Bind(s.sessions)
	h := s.coll.Handle()
	if h == nil {
		return ErrNotSignedIn
	}
	if err := h.Wait(ctx); err != nil {
		return err
	}
	s.saveCache()
	return nil
}

// Close отписывает коллекцию и закрывает кэш.
func (s *ShoeService) Close() error {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	if s.cache != nil {
		err := s.cache.Close()
		s.cache = nil
		return err
	}
	return nil
}

// Records возвращает проекцию текущего снимка.
func (s *ShoeService) Records(f shoe.Filter) []shoe.Record {
	return shoe.Project(s.coll.CurrentRecords(), f)
}

// Offline читает кэш без обращения к серверу. Возвращает время получения снимка.
func (s *ShoeService) Offline(f shoe.Filter) ([]shoe.Record, time.Time, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, time.Time{}, ErrNotSignedIn
	}
	if s.openCache == nil {
		return nil, time.Time{}, errors.New("snapshot cache is not configured")
	}
	cache, err := s.openCache(sess.UserID)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer cache.Close()
	records, syncedAt, err := cache.LoadSnapshot(sess.UserID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return shoe.Project(records, f), syncedAt, nil
}

// Add создаёт запись (загрузив изображение, если задан imageFile) и ждёт её появления в снимке.
func (s *ShoeService) Add(ctx context.Context, d shoe.Draft, imageFile string) (shoe.Record, error) {
	if imageFile != "" {
		if err := d.Validate(); err != nil {
			return shoe.Record{}, err
		}
		ref, err := s.uploader.UploadImage(ctx, imageFile)
		if err != nil {
			return shoe.Record{}, fmt.Errorf("upload image: %w", err)
		}
		d.ImageRef = ref
	}
	rec, err := s.coll.Add(ctx, d)
	if err != nil {
		return shoe.Record{}, err
	}
	if err := s.waitFor(ctx, func(rs []shoe.Record) bool { return indexOf(rs, rec.ID) >= 0 }); err != nil {
		return rec, err
	}
	s.saveCache()
	return rec, nil
}

// Edit применяет изменение, дожидается ответа сервера и сообщает об откате.
func (s *ShoeService) Edit(ctx context.Context, id string, patch shoe.Patch, imageFile string) error {
	if imageFile != "" {
		// патч и id проверяются до загрузки изображения
		if err := patch.Validate(); err != nil {
			return err
		}
		if indexOf(s.coll.CurrentRecords(), id) < 0 {
			return fmt.Errorf("edit: %w: record %q", common.ErrNotFound, id)
		}
		ref, err := s.uploader.UploadImage(ctx, imageFile)
		if err != nil {
			return fmt.Errorf("upload image: %w", err)
		}
		patch.ImageRef = &ref
	}
	if patch.Empty() {
		return fmt.Errorf("%w: nothing to change", common.ErrValidation)
	}
	return s.settle(ctx, s.coll.Update(id, patch))
}

// ToggleFavorite инвертирует избранное.
func (s *ShoeService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	if err := s.settle(ctx, s.coll.ToggleFavorite(id)); err != nil {
		return false, err
	}
	rs := s.coll.CurrentRecords()
	if i := indexOf(rs, id); i >= 0 {
		return rs[i].IsFavorite, nil
	}
	return false, nil
}

// Remove удаляет запись.
func (s *ShoeService) Remove(ctx context.Context, id string) error {
	return s.settle(ctx, s.coll.Remove(id))
}

// Watch вызывает render на каждое изменение снимка, пока ctx не завершён
// или подписка не упала окончательно.
func (s *ShoeService) Watch(ctx context.Context, f shoe.Filter, render func([]shoe.Record)) error {
	// сигнал, оставшийся от Open, уже отражён в первой отрисовке
	select {
	case <-s.coll.Changes():
	default:
	}
	render(s.Records(f))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.coll.Changes():
			s.saveCache()
			render(s.Records(f))
		case err := <-s.coll.Errors():
			var serr *collection.SubscriptionError
			if errors.As(err, &serr) {
				return err
			}
			s.logger.Warnw("change rejected", "error", err)
		}
	}
}

// settle ждёт завершения удалённого вызова мутации и возвращает её ошибку, если была.
func (s *ShoeService) settle(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if err := s.coll.Flush(ctx); err != nil {
		return err
	}
	for {
		select {
		case err := <-s.coll.Errors():
			var merr *collection.MutationError
			if errors.As(err, &merr) {
				return err
			}
			s.logger.Warnw("background error", "error", err)
		default:
			s.saveCache()
			return nil
		}
	}
}

func (s *ShoeService) waitFor(ctx context.Context, cond func([]shoe.Record) bool) error {
	for {
		if cond(s.coll.CurrentRecords()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.coll.Changes():
		case err := <-s.coll.Errors():
			var serr *collection.SubscriptionError
			if errors.As(err, &serr) {
				return err
			}
		}
	}
}

func (s *ShoeService) saveCache() {
	if s.cache == nil || s.owner == "" || s.coll.Identity() != s.owner || s.coll.Stale() {
		return
	}
	if err := s.cache.SaveSnapshot(s.owner, s.coll.CurrentRecords()); err != nil {
		s.logger.Warnw("save snapshot cache", "error", err)
	}
}

func indexOf(rs []shoe.Record, id string) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}
