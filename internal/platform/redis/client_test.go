package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inheritx/internal/platform/config"
)

func TestOptionsAppliesTuning(t *testing.T) {
	opts, err := Options(config.Redis{
		URL:          "redis://:secret@cache:6380/3",
		PoolSize:     20,
		MinIdleConns: 4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 4, opts.MinIdleConns)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}

func TestOptionsKeepsDefaultsForZeroFields(t *testing.T) {
	opts, err := Options(config.Redis{URL: "redis://localhost:6379"})
	require.NoError(t, err)
	assert.Zero(t, opts.PoolSize)
	assert.Zero(t, opts.WriteTimeout)
}

func TestOptionsRejectsBadURL(t *testing.T) {
	_, err := Options(config.Redis{URL: "http://localhost"})
	require.Error(t, err)
}

func TestNewWithoutURLIsDisabled(t *testing.T) {
	client, err := New(context.Background(), config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
