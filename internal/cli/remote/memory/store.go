// Package memory — хранилище записей в памяти процесса, реализующее collection.Remote.
// Используется в тестах: умеет внедрять ошибки и задерживать операции.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ShoeKeeper/internal/cli/collection"
	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/shoe"

	"github.com/google/uuid"
)

// Op — операция хранилища, для которой можно внедрить ошибку или блокировку.
type Op string

const (
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpSubscribe Op = "subscribe"
)

type subscriber struct {
	owner string
	ch    chan collection.Event
}

// push кладёт в канал только последний снимок: промежуточные снимки не нужны,
// каждый из них полный.
func (s *subscriber) push(ev collection.Event) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// Store — in-memory collection.Remote.
type Store struct {
	mu       sync.Mutex
	records  []shoe.Record
	subs     map[*subscriber]struct{}
	failures map[Op][]error
	gates    map[Op]chan struct{}
	calls    map[Op]int
}

var _ collection.Remote = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		subs:     make(map[*subscriber]struct{}),
		failures: make(map[Op][]error),
		gates:    make(map[Op]chan struct{}),
		calls:    make(map[Op]int),
	}
}

// Seed добавляет готовые записи (с любым владельцем) и рассылает снимки.
func (s *Store) Seed(records ...shoe.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := map[string]struct{}{}
	for _, r := range records {
		s.records = append(s.records, r)
		owners[r.OwnerID] = struct{}{}
	}
	for o := range owners {
		s.publishLocked(o)
	}
}

// FailNext ставит err в очередь ошибок для op. Каждая ошибка срабатывает один раз.
func (s *Store) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// Block задерживает все последующие вызовы op до вызова release или отмены их ctx.
func (s *Store) Block(op Op) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[op] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[op] == gate {
				delete(s.gates, op)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// BreakSubscriptions завершает все открытые потоки ошибкой err.
func (s *Store) BreakSubscriptions(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		sub.push(collection.Event{Err: err})
		delete(s.subs, sub)
		close(sub.ch)
	}
}

// Records возвращает записи владельца в порядке вставки.
func (s *Store) Records(owner string) []shoe.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownedLocked(owner)
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Subscribers returns the number of open streams.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// enter учитывает вызов, ждёт открытия шлюза и возвращает внедрённую ошибку, если есть.
func (s *Store) enter(ctx context.Context, op Op) error {
	s.mu.Lock()
	s.calls[op]++
	gate := s.gates[op]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if q := s.failures[op]; len(q) > 0 {
		s.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

// Create implements collection.Remote.
func (s *Store) Create(ctx context.Context, ownerID string, fields shoe.Fields) (string, error) {
	if err := s.enter(ctx, OpCreate); err != nil {
		return "", err
	}
	r := shoe.Record{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Title:      fields.Title,
		Price:      fields.Price,
		Category:   fields.Category,
		ImageRef:   fields.ImageRef,
		IsFavorite: fields.IsFavorite,
		CreatedAt:  fields.CreatedAt,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	s.publishLocked(ownerID)
	return r.ID, nil
}

// Update implements collection.Remote.
func (s *Store) Update(ctx context.Context, id string, patch shoe.Patch) error {
	if err := s.enter(ctx, OpUpdate); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: record %q", common.ErrNotFound, id)
	}
	s.records[i] = patch.Apply(s.records[i])
	s.publishLocked(s.records[i].OwnerID)
	return nil
}

// Delete implements collection.Remote.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.enter(ctx, OpDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: record %q", common.ErrNotFound, id)
	}
	owner := s.records[i].OwnerID
	s.records = slices.Delete(s.records, i, i+1)
	s.publishLocked(owner)
	return nil
}

// Subscribe implements collection.Remote. Текущий снимок отправляется сразу.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (<-chan collection.Event, error) {
	if err := s.enter(ctx, OpSubscribe); err != nil {
		return nil, err
	}
	sub := &subscriber{owner: ownerID, ch: make(chan collection.Event, 1)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	sub.push(collection.Event{Records: s.ownedLocked(ownerID)})
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[sub]; ok {
			delete(s.subs, sub)
			close(sub.ch)
		}
	}()
	return sub.ch, nil
}

func (s *Store) publishLocked(owner string) {
	var snapshot []shoe.Record
	for sub := range s.subs {
		if sub.owner != owner {
			continue
		}
		if snapshot == nil {
			snapshot = s.ownedLocked(owner)
		}
		sub.push(collection.Event{Records: slices.Clone(snapshot)})
	}
}

func (s *Store) ownedLocked(owner string) []shoe.Record {
	out := make([]shoe.Record, 0)
	for _, r := range s.records {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.records, func(r shoe.Record) bool { return r.ID == id })
}
