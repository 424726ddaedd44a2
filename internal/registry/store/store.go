// Package store persists the registry aggregate.
//
// Every implementation provides Execute(ctx, id, validate, mutate), which
// holds a registry-wide serialization boundary across both callbacks:
//   - InMemoryStore: a single mutex; mutate runs on a clone swapped in on success
//   - PostgresStore: SELECT ... FOR UPDATE on the registry row inside a transaction
//   - RedisStore: WATCH on the registry key with a MULTI/EXEC write, retried on conflict
//
// Errors from validate are returned unchanged. Infrastructure facts are
// reported with the sentinel errors in pkg/platform/sentinel.
package store

import (
	"context"
	"time"
)

// DefaultTxTimeout bounds one Execute call when the caller set no deadline.
const DefaultTxTimeout = 5 * time.Second

type config struct {
	txTimeout time.Duration
}

type Option func(*config)

// WithTxTimeout overrides DefaultTxTimeout. Zero or negative disables it.
func WithTxTimeout(d time.Duration) Option {
	return func(c *config) {
		c.txTimeout = d
	}
}

func newConfig(opts []Option) config {
	c := config{txTimeout: DefaultTxTimeout}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || c.txTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.txTimeout)
}
