// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/errors"
	"github.com/stacklok/regoidc/pkg/logger"
)

// NewStore creates the backend selected by cfg.Type. An empty type selects
// the memory backend.
func NewStore(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "", config.StoreTypeMemory:
		logger.Debugw("using in-memory correlation store")
		return NewMemoryStore(cfg.TTL, WithCleanupInterval(cfg.CleanupInterval)), nil
	case config.StoreTypeFile:
		s, err := NewFileStore(cfg.File.Path, cfg.TTL)
		if err != nil {
			return nil, errors.NewStoreError("failed to open file store", err)
		}
		logger.Debugw("using file correlation store", "path", s.Path())
		return s, nil
	case config.StoreTypeRedis:
		s, err := NewRedisStore(ctx, cfg.Redis, cfg.TTL)
		if err != nil {
			return nil, errors.NewStoreError("failed to open redis store", err)
		}
		logger.Debugw("using redis correlation store", "key_prefix", s.keyPrefix)
		return s, nil
	default:
		return nil, errors.NewConfigurationError(fmt.Sprintf("unknown store type %q", cfg.Type), nil)
	}
}
