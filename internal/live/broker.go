// Package live доставляет клиентам снимки их записей через WebSocket.
// Broker разносит сигнал "записи владельца изменились", Feed обслуживает одно соединение.
package live

import (
	"context"
	"sync"
)

// Broker — шина уведомлений об изменении записей владельца.
type Broker interface {
	// Publish сообщает подписчикам ownerID, что его записи изменились.
	Publish(ctx context.Context, ownerID string) error
	// Subscribe регистрирует handler до завершения ctx. handler не должен блокироваться.
	Subscribe(ctx context.Context, ownerID string, handler func()) error
}

type localSub struct {
	handler func()
}

// LocalBroker — Broker в пределах одного процесса.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*localSub]struct{}
}

var _ Broker = (*LocalBroker)(nil)

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localSub]struct{})}
}

func (b *LocalBroker) Publish(_ context.Context, ownerID string) error {
	b.mu.RLock()
	handlers := make([]func(), 0, len(b.subs[ownerID]))
	for s := range b.subs[ownerID] {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h()
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, ownerID string, handler func()) error {
	s := &localSub{handler: handler}
	b.mu.Lock()
	if b.subs[ownerID] == nil {
		b.subs[ownerID] = make(map[*localSub]struct{})
	}
	b.subs[ownerID][s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[ownerID], s)
		if len(b.subs[ownerID]) == 0 {
			delete(b.subs, ownerID)
		}
	}()
	return nil
}

// Subscribers returns the number of handlers registered for ownerID.
func (b *LocalBroker) Subscribers(ownerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ownerID])
}
