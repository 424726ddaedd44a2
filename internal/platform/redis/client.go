// Package redis opens the go-redis client used by the redis registry store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inheritx/internal/platform/config"
)

var errNoURL = errors.New("redis url is not configured")

// Client is a connected go-redis client.
type Client struct {
	*redis.Client
}

// Options turns cfg into go-redis options. Zero-valued tuning fields keep the
// go-redis defaults.
func Options(cfg config.Redis) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, errNoURL
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	for _, d := range []struct {
		src time.Duration
		dst *time.Duration
	}{
		{cfg.DialTimeout, &opts.DialTimeout},
		{cfg.ReadTimeout, &opts.ReadTimeout},
		{cfg.WriteTimeout, &opts.WriteTimeout},
	} {
		if d.src > 0 {
			*d.dst = d.src
		}
	}
	return opts, nil
}

// New connects and pings. It returns nil, nil when no URL is configured so
// callers can treat Redis as optional.
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	opts, err := Options(cfg)
	if errors.Is(err, errNoURL) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
