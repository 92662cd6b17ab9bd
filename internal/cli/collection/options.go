package collection

import (
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout ограничивает каждый удалённый вызов.
const DefaultTimeout = 10 * time.Second

const defaultErrorBuffer = 64

// Option настраивает Collection.
type Option func(*Collection)

// WithLogger задаёт логгер. По умолчанию zap.NewNop.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Collection) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout задаёт таймаут удалённых вызовов.
func WithTimeout(d time.Duration) Option {
	return func(c *Collection) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock подменяет источник времени для createdAt.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) {
		if now != nil {
			c.now = now
		}
	}
}

// WithErrorBuffer задаёт ёмкость канала ошибок.
func WithErrorBuffer(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.errBuf = n
		}
	}
}
