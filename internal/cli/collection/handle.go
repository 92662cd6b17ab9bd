package collection

import (
	"context"
	"sync"
)

// State — состояние подписки.
type State int

const (
	StateIdle State = iota
	StateSubscribing
	StateLive
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Handle — одна подписка коллекции на записи пользователя.
type Handle struct {
	identity string
	gen      uint64
	cancel   context.CancelFunc

	mu    sync.Mutex
	state State
	err   error

	live     chan struct{}
	done     chan struct{}
	liveOnce sync.Once
	doneOnce sync.Once
}

func newHandle(identity string, gen uint64, cancel context.CancelFunc) *Handle {
	return &Handle{
		identity: identity,
		gen:      gen,
		cancel:   cancel,
		state:    StateIdle,
		live:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Identity returns the user the handle is scoped to.
func (h *Handle) Identity() string { return h.identity }

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err возвращает *SubscriptionError для состояния Error, иначе nil.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait блокируется до первого снимка (nil), ошибки подписки, закрытия (ErrClosed)
// или отмены ctx.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.live:
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateError:
		return h.err
	case StateClosed:
		return ErrClosed
	}
	return nil
}

// setState переводит handle в новое состояние. Closed и Error конечны,
// из Error допустим только переход в Closed.
func (h *Handle) setState(s State, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateClosed {
		return
	}
	if h.state == StateError && s != StateClosed {
		return
	}
	h.state = s
	h.err = err
	switch s {
	case StateLive:
		h.liveOnce.Do(func() { close(h.live) })
	case StateError, StateClosed:
		h.doneOnce.Do(func() { close(h.done) })
	}
}

func (h *Handle) close() {
	h.cancel()
	h.setState(StateClosed, nil)
}
