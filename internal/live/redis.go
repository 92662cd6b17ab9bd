package live

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker разносит уведомления между экземплярами сервера через Redis pub/sub.
type RedisBroker struct {
	client redis.UniversalClient
	logger *zap.SugaredLogger
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker подключается к Redis и проверяет соединение.
func NewRedisBroker(ctx context.Context, addr string, logger *zap.SugaredLogger) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisBroker{client: client, logger: logger}, nil
}

// channelName использует hash tag, чтобы канал владельца попадал в один слот кластера.
func channelName(ownerID string) string {
	return "shoes:{" + ownerID + "}"
}

func (b *RedisBroker) Publish(ctx context.Context, ownerID string) error {
	return b.client.Publish(ctx, channelName(ownerID), ownerID).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, ownerID string, handler func()) error {
	pubsub := b.client.Subscribe(ctx, channelName(ownerID))
	// Ensure subscription is established
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis subscribe %s: %w", channelName(ownerID), err)
	}

	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					b.logger.Warnw("redis channel closed", "owner", ownerID)
					return
				}
				handler()
			}
		}
	}()
	return nil
}

// Close closes the Redis client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
