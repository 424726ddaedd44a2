package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	"inheritx/pkg/platform/sentinel"
)

const (
	registryKeyPrefix = "inheritx:registry:"

	// maxWatchRetries bounds optimistic retries when another writer touched
	// the key between WATCH and EXEC.
	maxWatchRetries = 16
)

// RedisStore keeps each registry as one JSON document. Execute uses
// WATCH/MULTI so a concurrent write aborts and retries the whole
// validate-then-mutate pass against fresh state.
type RedisStore struct {
	client *redis.Client
	cfg    config
}

func NewRedis(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{client: client, cfg: newConfig(opts)}
}

func registryKey(registryID id.RegistryID) string {
	return registryKeyPrefix + registryID.String()
}

func (s *RedisStore) Create(ctx context.Context, reg *models.Registry) error {
	data, err := json.Marshal(toRecord(reg))
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	created, err := s.client.SetNX(ctx, registryKey(reg.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: create registry: %v", sentinel.ErrUnavailable, err)
	}
	if !created {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, registryID id.RegistryID) (*models.Registry, error) {
	data, err := s.client.Get(ctx, registryKey(registryID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get registry: %v", sentinel.ErrUnavailable, err)
	}
	return decodeRegistry(data)
}

func (s *RedisStore) Execute(ctx context.Context, registryID id.RegistryID, validate func(*models.Registry) error, mutate func(*models.Registry)) (*models.Registry, error) {
	ctx, cancel := s.cfg.withTimeout(ctx)
	defer cancel()
	key := registryKey(registryID)

	for range maxWatchRetries {
		var result *models.Registry
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return sentinel.ErrNotFound
				}
				return fmt.Errorf("%w: get registry: %v", sentinel.ErrUnavailable, err)
			}
			reg, err := decodeRegistry(data)
			if err != nil {
				return err
			}
			if err := validate(reg); err != nil {
				return err
			}
			mutate(reg)

			encoded, err := json.Marshal(toRecord(reg))
			if err != nil {
				return fmt.Errorf("encode registry: %w", err)
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			}); err != nil {
				return err
			}
			result = reg
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: registry %s contended", sentinel.ErrUnavailable, registryID)
}

func decodeRegistry(data []byte) (*models.Registry, error) {
	var rec registryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return fromRecord(rec)
}
