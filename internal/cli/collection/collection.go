// Package collection держит локальную копию записей текущего пользователя,
// синхронизированную с сервером через подписку, и выполняет оптимистичные мутации.
//
// Все изменения снимка проходят под одним мьютексом. Снимок, пришедший из подписки,
// целиком заменяет локальное состояние. Мутации применяются локально сразу, удалённый
// вызов идёт в фоне; при ошибке изменение откатывается, а ошибка уходит в Errors().
package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"ShoeKeeper/internal/common"
	"ShoeKeeper/internal/shoe"

	"go.uber.org/zap"
)

// Collection — синхронизированная коллекция записей одного пользователя.
type Collection struct {
	remote  Remote
	logger  *zap.SugaredLogger
	timeout time.Duration
	now     func() time.Time
	errBuf  int

	mu       sync.Mutex
	records  []shoe.Record
	identity string
	handle   *Handle
	// gen растёт при каждой смене подписки, события старых потоков отбрасываются.
	gen uint64
	// epoch растёт при каждом применённом снимке и при сбросе состояния.
	epoch uint64
	stale bool

	inflight int
	idle     chan struct{}

	errs    chan error
	changes chan struct{}
}

// New создаёт коллекцию поверх remote.
func New(remote Remote, opts ...Option) *Collection {
	c := &Collection{
		remote:  remote,
		logger:  zap.NewNop().Sugar(),
		timeout: DefaultTimeout,
		now:     time.Now,
		errBuf:  defaultErrorBuffer,
		changes: make(chan struct{}, 1),
		idle:    make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	close(c.idle)
	c.errs = make(chan error, c.errBuf)
	return c
}

// Errors возвращает канал асинхронных ошибок (*MutationError, *SubscriptionError).
// При переполнении новые ошибки отбрасываются с предупреждением в лог.
func (c *Collection) Errors() <-chan error { return c.errs }

// Changes сигналит об изменении локального снимка. Сигналы схлопываются.
func (c *Collection) Changes() <-chan struct{} { return c.changes }

// CurrentRecords returns a copy of the local snapshot.
func (c *Collection) CurrentRecords() []shoe.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Identity returns the identity of the last subscription, empty when anonymous.
func (c *Collection) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Stale reports whether the snapshot is no longer kept live.
func (c *Collection) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Handle returns the active subscription or nil.
func (c *Collection) Handle() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Subscribe начинает живую выборку для identity, закрывая предыдущую подписку.
// Смена пользователя сразу очищает снимок.
func (c *Collection) Subscribe(identity string) (*Handle, error) {
	if identity == "" {
		return nil, fmt.Errorf("subscribe: %w: empty identity", common.ErrUnauthorized)
	}

	c.mu.Lock()
	if c.handle != nil {
		c.handle.close()
		c.handle = nil
	}
	if c.identity != identity {
		c.records = nil
		c.epoch++
		c.notifyLocked()
	}
	c.identity = identity
	c.stale = false
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	h := newHandle(identity, c.gen, cancel)
	h.setState(StateSubscribing, nil)
	c.handle = h
	c.mu.Unlock()

	c.logger.Debugw("subscribing", "identity", identity, "generation", h.gen)
	go c.run(ctx, h)
	return h, nil
}

// Unsubscribe останавливает подписку. Снимок остаётся, но помечается устаревшим.
// Безопасен в любой момент, в том числе во время переподписки.
func (c *Collection) Unsubscribe(h *Handle) {
	if h == nil {
		return
	}
	c.mu.Lock()
	if c.handle == h {
		c.handle = nil
		c.gen++
		c.stale = true
		c.notifyLocked()
	}
	h.close()
	c.mu.Unlock()
}

// Reset закрывает подписку и очищает снимок (выход пользователя).
func (c *Collection) Reset() {
	c.mu.Lock()
	if c.handle != nil {
		c.handle.close()
		c.handle = nil
	}
	c.gen++
	c.epoch++
	c.identity = ""
	c.records = nil
	c.stale = false
	c.notifyLocked()
	c.mu.Unlock()
}

// run держит поток подписки. После сбоя делается ровно одна повторная попытка;
// поток, доставивший хотя бы один снимок, снова получает право на неё.
func (c *Collection) run(ctx context.Context, h *Handle) {
	retried := false
	for {
		delivered, err := c.stream(ctx, h)
		if ctx.Err() != nil {
			return
		}
		if delivered {
			retried = false
		}
		if !retried {
			retried = true
			c.logger.Warnw("subscription failed, resubscribing", "identity", h.identity, "error", err)
			if !c.resubscribing(h) {
				return
			}
			continue
		}
		c.fail(h, err)
		return
	}
}

func (c *Collection) stream(ctx context.Context, h *Handle) (bool, error) {
	events, err := c.remote.Subscribe(ctx, h.identity)
	if err != nil {
		return false, err
	}
	delivered := false
	for {
		select {
		case <-ctx.Done():
			return delivered, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return delivered, fmt.Errorf("%w: subscription stream closed", common.ErrRemoteUnavailable)
			}
			if ev.Err != nil {
				return delivered, ev.Err
			}
			if c.applySnapshot(h, ev.Records) {
				delivered = true
			}
		}
	}
}

// applySnapshot целиком заменяет локальный снимок. Чужие записи отбрасываются.
func (c *Collection) applySnapshot(h *Handle, records []shoe.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != h || c.gen != h.gen {
		return false
	}
	next := make([]shoe.Record, 0, len(records))
	for _, r := range records {
		if r.OwnerID != h.identity {
			c.logger.Warnw("dropping record of another owner", "id", r.ID, "owner", r.OwnerID, "identity", h.identity)
			continue
		}
		next = append(next, r)
	}
	c.records = next
	c.epoch++
	c.stale = false
	h.setState(StateLive, nil)
	c.notifyLocked()
	return true
}

func (c *Collection) resubscribing(h *Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != h || c.gen != h.gen {
		return false
	}
	h.setState(StateSubscribing, nil)
	return true
}

func (c *Collection) fail(h *Handle, err error) {
	c.mu.Lock()
	if c.handle != h || c.gen != h.gen {
		c.mu.Unlock()
		return
	}
	serr := &SubscriptionError{Identity: h.identity, Err: err}
	h.setState(StateError, serr)
	c.stale = true
	c.notifyLocked()
	c.mu.Unlock()

	c.logger.Errorw("subscription failed", "identity", h.identity, "error", err)
	c.emit(serr)
}

// Add проверяет черновик и создаёт запись на сервере. Локально запись не вставляется:
// она придёт вместе со следующим снимком.
func (c *Collection) Add(ctx context.Context, d shoe.Draft) (shoe.Record, error) {
	if err := d.Validate(); err != nil {
		return shoe.Record{}, err
	}
	d = d.Normalize()

	c.mu.Lock()
	owner := c.identity
	active := c.handle != nil
	if active {
		c.beginLocked()
	}
	c.mu.Unlock()
	if owner == "" {
		return shoe.Record{}, fmt.Errorf("add: %w", common.ErrUnauthorized)
	}
	if !active {
		return shoe.Record{}, fmt.Errorf("add: %w", ErrClosed)
	}
	defer c.end()

	fields := shoe.Fields{Draft: d, IsFavorite: false, CreatedAt: c.now().UTC()}
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	id, err := c.remote.Create(cctx, owner, fields)
	if err != nil {
		err = classify(cctx, err)
		c.logger.Warnw("create failed", "owner", owner, "error", err)
		return shoe.Record{}, &MutationError{Op: OpAdd, Err: err}
	}
	return shoe.Record{
		ID:         id,
		OwnerID:    owner,
		Title:      d.Title,
		Price:      d.Price,
		Category:   d.Category,
		ImageRef:   d.ImageRef,
		IsFavorite: false,
		CreatedAt:  fields.CreatedAt,
	}, nil
}

// Update применяет patch локально и отправляет его на сервер.
func (c *Collection) Update(id string, patch shoe.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return c.mutate(OpUpdate, id, func(shoe.Record) shoe.Patch { return patch })
}

// ToggleFavorite инвертирует isFavorite записи.
func (c *Collection) ToggleFavorite(id string) error {
	return c.mutate(OpToggleFavorite, id, func(cur shoe.Record) shoe.Patch {
		v := !cur.IsFavorite
		return shoe.Patch{IsFavorite: &v}
	})
}

func (c *Collection) mutate(op Op, id string, build func(shoe.Record) shoe.Patch) error {
	c.mu.Lock()
	if c.handle == nil {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w: record %q", op, common.ErrNotFound, id)
	}
	prev := c.records[idx]
	patch := build(prev)
	if patch.Empty() {
		c.mu.Unlock()
		return nil
	}
	c.records[idx] = patch.Apply(prev)
	identity, epoch := c.identity, c.epoch
	c.beginLocked()
	c.notifyLocked()
	c.mu.Unlock()

	go func() {
		defer c.end()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		err := c.remote.Update(ctx, id, patch)
		if err == nil {
			return
		}
		err = classify(ctx, err)
		rolled := c.rollbackPatch(identity, epoch, id, patch, prev)
		c.logger.Warnw("update failed", "op", op, "id", id, "rolled_back", rolled, "error", err)
		c.emit(&MutationError{Op: op, ID: id, Err: err, RolledBack: rolled})
	}()
	return nil
}

// rollbackPatch откатывает поля, пока после мутации не пришёл новый снимок и не сменился
// пользователь. Отписка откату не мешает: замороженный снимок не должен хранить отвергнутое значение.
func (c *Collection) rollbackPatch(identity string, epoch uint64, id string, patch shoe.Patch, prev shoe.Record) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity != identity || c.epoch != epoch {
		return false
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		return false
	}
	c.records[idx] = patch.Revert(c.records[idx], prev)
	c.notifyLocked()
	return true
}

// Remove удаляет запись локально и на сервере. При ошибке запись возвращается на прежнее место.
func (c *Collection) Remove(id string) error {
	c.mu.Lock()
	if c.handle == nil {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", OpRemove, ErrClosed)
	}
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w: record %q", OpRemove, common.ErrNotFound, id)
	}
	prev := c.records[idx]
	c.records = slices.Delete(c.records, idx, idx+1)
	identity, epoch := c.identity, c.epoch
	c.beginLocked()
	c.notifyLocked()
	c.mu.Unlock()

	go func() {
		defer c.end()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		err := c.remote.Delete(ctx, id)
		if err == nil {
			return
		}
		if errors.Is(err, common.ErrNotFound) {
			// на сервере записи уже нет
			c.logger.Debugw("record already deleted remotely", "id", id)
			return
		}
		err = classify(ctx, err)
		rolled := c.rollbackRemove(identity, epoch, prev, idx)
		c.logger.Warnw("delete failed", "id", id, "rolled_back", rolled, "error", err)
		c.emit(&MutationError{Op: OpRemove, ID: id, Err: err, RolledBack: rolled})
	}()
	return nil
}

func (c *Collection) rollbackRemove(identity string, epoch uint64, prev shoe.Record, idx int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity != identity || c.epoch != epoch {
		return false
	}
	if c.indexLocked(prev.ID) >= 0 {
		return false
	}
	c.records = slices.Insert(c.records, min(idx, len(c.records)), prev)
	c.notifyLocked()
	return true
}

// Flush ждёт подтверждения или отката всех незавершённых мутаций.
func (c *Collection) Flush(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collection) indexLocked(id string) int {
	return slices.IndexFunc(c.records, func(r shoe.Record) bool { return r.ID == id })
}

func (c *Collection) beginLocked() {
	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++
}

func (c *Collection) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
}

func (c *Collection) notifyLocked() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Collection) emit(err error) {
	select {
	case c.errs <- err:
	default:
		c.logger.Warnw("error channel full, dropping error", "error", err)
	}
}

// classify приводит истёкший дедлайн к common.ErrTimeout.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if errors.Is(err, common.ErrTimeout) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrTimeout, err)
	}
	return err
}
