// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/logger"
)

// DefaultCleanupInterval is how often MemoryStore sweeps expired entries.
const DefaultCleanupInterval = 30 * time.Second

// timedEntry wraps a value with its expiry for TTL tracking.
type timedEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryStore implements CachingStore with in-memory maps. Expired entries
// are invisible to readers immediately and removed by a background sweep.
// It is suitable for a single registry instance.
type MemoryStore struct {
	mu  sync.RWMutex
	ttl config.TTLConfig
	now func() time.Time

	states   map[string]*timedEntry[string]
	pending  map[string]*timedEntry[string]
	userInfo map[string]*timedEntry[map[string]any]
	groups   map[string]*timedEntry[[]string]

	closed bool

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupDone     chan struct{}
	closeOnce       sync.Once
}

var _ CachingStore = (*MemoryStore)(nil)

// MemoryStoreOption configures a MemoryStore instance.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets a custom cleanup interval.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithClock replaces the time source. Used by tests to expire entries.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a MemoryStore and starts its cleanup goroutine.
func NewMemoryStore(ttl config.TTLConfig, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		ttl:             ttl,
		now:             time.Now,
		states:          make(map[string]*timedEntry[string]),
		pending:         make(map[string]*timedEntry[string]),
		userInfo:        make(map[string]*timedEntry[map[string]any]),
		groups:          make(map[string]*timedEntry[[]string]),
		cleanupInterval: DefaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// SetState implements Store.
func (s *MemoryStore) SetState(_ context.Context, providerID, state, nonce string) error {
	return memPut(s, s.states, entryKey(CategoryState, providerID, state), nonce, s.ttl.State)
}

// GetState implements Store.
func (s *MemoryStore) GetState(_ context.Context, providerID, state string) (string, error) {
	return memGet(s, s.states, entryKey(CategoryState, providerID, state))
}

// DeleteState implements Store.
func (s *MemoryStore) DeleteState(_ context.Context, providerID, state string) error {
	return memRemove(s, s.states, entryKey(CategoryState, providerID, state))
}

// SetPendingToken implements Store.
func (s *MemoryStore) SetPendingToken(_ context.Context, sessionID, token string) error {
	return memPut(s, s.pending, pendingKey(sessionID), token, s.ttl.PendingToken)
}

// GetPendingToken implements Store.
func (s *MemoryStore) GetPendingToken(_ context.Context, sessionID string) (string, error) {
	return memGet(s, s.pending, pendingKey(sessionID))
}

// DeletePendingToken implements Store.
func (s *MemoryStore) DeletePendingToken(_ context.Context, sessionID string) error {
	return memRemove(s, s.pending, pendingKey(sessionID))
}

// SetUserInfo implements UserInfoCache.
func (s *MemoryStore) SetUserInfo(_ context.Context, providerID, key string, claims map[string]any) error {
	return memPut(s, s.userInfo, entryKey(CategoryUserInfo, providerID, key), maps.Clone(claims), s.ttl.UserInfo)
}

// GetUserInfo implements UserInfoCache.
func (s *MemoryStore) GetUserInfo(_ context.Context, providerID, key string) (map[string]any, error) {
	claims, err := memGet(s, s.userInfo, entryKey(CategoryUserInfo, providerID, key))
	if err != nil {
		return nil, err
	}
	return maps.Clone(claims), nil
}

// SetUserGroups implements GroupsCache.
func (s *MemoryStore) SetUserGroups(_ context.Context, providerID, key string, groups []string) error {
	return memPut(s, s.groups, entryKey(CategoryGroups, providerID, key), slices.Clone(groups), s.ttl.Groups)
}

// GetUserGroups implements GroupsCache.
func (s *MemoryStore) GetUserGroups(_ context.Context, providerID, key string) ([]string, error) {
	groups, err := memGet(s, s.groups, entryKey(CategoryGroups, providerID, key))
	if err != nil {
		return nil, err
	}
	return slices.Clone(groups), nil
}

// Close stops the cleanup goroutine. Subsequent operations return ErrClosed.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.stopCleanup)
		<-s.cleanupDone
	})
	return nil
}

func memPut[T any](s *MemoryStore, m map[string]*timedEntry[T], key string, value T, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	m[key] = &timedEntry[T]{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func memGet[T any](s *MemoryStore, m map[string]*timedEntry[T], key string) (T, error) {
	var zero T
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return zero, ErrClosed
	}
	e, ok := m[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return zero, ErrNotFound
	}
	return e.value, nil
}

func memRemove[T any](s *MemoryStore, m map[string]*timedEntry[T], key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(m, key)
	return nil
}

// cleanupLoop runs periodic cleanup of expired entries.
func (s *MemoryStore) cleanupLoop() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCleanup:
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired removes all expired entries.
func (s *MemoryStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := sweep(s.states, now) + sweep(s.pending, now) + sweep(s.userInfo, now) + sweep(s.groups, now)
	if removed > 0 {
		logger.Debugw("removed expired store entries", "count", removed)
	}
}

func sweep[T any](m map[string]*timedEntry[T], now time.Time) int {
	n := 0
	for k, e := range m {
		if !now.Before(e.expiresAt) {
			delete(m, k)
			n++
		}
	}
	return n
}
