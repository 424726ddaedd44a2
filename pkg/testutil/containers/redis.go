//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer is a Redis instance backing the registry's redis store.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

// NewRedisContainer starts Redis and returns a connected client. Callers go
// through Manager, which owns the container for the whole test binary.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	require.NoError(t, err, "start redis container")

	rc := &RedisContainer{Container: container}
	if err := rc.connect(ctx, container); err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err)
	}
	return rc
}

func (r *RedisContainer) connect(ctx context.Context, container *tcredis.RedisContainer) error {
	url, err := container.ConnectionString(ctx)
	if err != nil {
		return err
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	r.URL = url
	r.Client = client
	return nil
}

// FlushAll drops every registry key so each test starts from an unopened registry.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
