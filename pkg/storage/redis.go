// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/logger"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// connectAttempts bounds the start-up ping retries.
const connectAttempts = 5

// RedisStore implements CachingStore on a single Redis node or a Sentinel
// managed deployment. Entry TTLs are enforced by Redis itself, which makes
// the store safe to share between registry replicas.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       config.TTLConfig
	closed    atomic.Bool
}

var _ CachingStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection, retrying with
// exponential backoff.
func NewRedisStore(ctx context.Context, cfg config.RedisStoreConfig, ttl config.TTLConfig) (*RedisStore, error) {
	opts := &redis.UniversalOptions{
		DB:           cfg.DB,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
	if cfg.MasterName != "" {
		opts.MasterName = cfg.MasterName
		opts.Addrs = cfg.SentinelAddrs
	} else {
		opts.Addrs = []string{cfg.Addr}
	}
	client := redis.NewUniversalClient(opts)

	_, err := backoff.Retry(ctx, func() (string, error) {
		return client.Ping(ctx).Result()
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(connectAttempts),
		backoff.WithNotify(func(err error, d time.Duration) {
			logger.Warnw("redis not reachable, retrying", "error", err, "retry_in", d)
		}),
	)
	if err != nil {
		// Close the client to prevent resource leak
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = config.DefaultRedisKeyPrefix
	}
	return NewRedisStoreWithClient(client, prefix, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string, ttl config.TTLConfig) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// SetState implements Store.
func (s *RedisStore) SetState(ctx context.Context, providerID, state, nonce string) error {
	return s.set(ctx, entryKey(CategoryState, providerID, state), nonce, s.ttl.State)
}

// GetState implements Store.
func (s *RedisStore) GetState(ctx context.Context, providerID, state string) (string, error) {
	var nonce string
	err := s.get(ctx, entryKey(CategoryState, providerID, state), &nonce)
	return nonce, err
}

// DeleteState implements Store.
func (s *RedisStore) DeleteState(ctx context.Context, providerID, state string) error {
	return s.del(ctx, entryKey(CategoryState, providerID, state))
}

// SetPendingToken implements Store.
func (s *RedisStore) SetPendingToken(ctx context.Context, sessionID, token string) error {
	return s.set(ctx, pendingKey(sessionID), token, s.ttl.PendingToken)
}

// GetPendingToken implements Store.
func (s *RedisStore) GetPendingToken(ctx context.Context, sessionID string) (string, error) {
	var token string
	err := s.get(ctx, pendingKey(sessionID), &token)
	return token, err
}

// DeletePendingToken implements Store.
func (s *RedisStore) DeletePendingToken(ctx context.Context, sessionID string) error {
	return s.del(ctx, pendingKey(sessionID))
}

// SetUserInfo implements UserInfoCache.
func (s *RedisStore) SetUserInfo(ctx context.Context, providerID, key string, claims map[string]any) error {
	return s.set(ctx, entryKey(CategoryUserInfo, providerID, key), claims, s.ttl.UserInfo)
}

// GetUserInfo implements UserInfoCache.
func (s *RedisStore) GetUserInfo(ctx context.Context, providerID, key string) (map[string]any, error) {
	var claims map[string]any
	if err := s.get(ctx, entryKey(CategoryUserInfo, providerID, key), &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SetUserGroups implements GroupsCache.
func (s *RedisStore) SetUserGroups(ctx context.Context, providerID, key string, groups []string) error {
	return s.set(ctx, entryKey(CategoryGroups, providerID, key), groups, s.ttl.Groups)
}

// GetUserGroups implements GroupsCache.
func (s *RedisStore) GetUserGroups(ctx context.Context, providerID, key string) ([]string, error) {
	var groups []string
	if err := s.get(ctx, entryKey(CategoryGroups, providerID, key), &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) redisKey(key string) string {
	return s.keyPrefix + key
}

func (s *RedisStore) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal store entry: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, out any) error {
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal store entry: %w", err)
	}
	return nil
}

func (s *RedisStore) del(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
