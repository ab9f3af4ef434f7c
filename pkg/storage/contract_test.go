// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/regoidc/pkg/config"
)

var testTTL = config.TTLConfig{
	State:        time.Minute,
	UserInfo:     5 * time.Minute,
	Groups:       5 * time.Minute,
	PendingToken: time.Minute,
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// storeHarness builds a fresh store and a function that moves its notion of
// time forward.
type storeHarness func(t *testing.T) (Store, func(time.Duration))

// testStoreContract exercises the behaviour every backend shares.
func testStoreContract(t *testing.T, newStore storeHarness) {
	t.Helper()
	ctx := context.Background()

	t.Run("state round trip and delete", func(t *testing.T) {
		s, _ := newStore(t)

		for i := 0; i < 5; i++ {
			state, nonce := fmt.Sprintf("state-%d", i), fmt.Sprintf("nonce-%d", i)
			require.NoError(t, s.SetState(ctx, "openid", state, nonce))

			got, err := s.GetState(ctx, "openid", state)
			require.NoError(t, err)
			assert.Equal(t, nonce, got)

			require.NoError(t, s.DeleteState(ctx, "openid", state))
			_, err = s.GetState(ctx, "openid", state)
			assert.ErrorIs(t, err, ErrNotFound)
		}
	})

	t.Run("state is namespaced by provider", func(t *testing.T) {
		s, _ := newStore(t)

		require.NoError(t, s.SetState(ctx, "gitlab", "abc", "n1"))
		_, err := s.GetState(ctx, "github", "abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing entries", func(t *testing.T) {
		s, _ := newStore(t)

		_, err := s.GetState(ctx, "openid", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetPendingToken(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.DeleteState(ctx, "openid", "nope"))
		assert.NoError(t, s.DeletePendingToken(ctx, "nope"))
	})

	t.Run("state expires", func(t *testing.T) {
		s, advance := newStore(t)

		require.NoError(t, s.SetState(ctx, "openid", "s", "n"))
		advance(testTTL.State + time.Second)
		_, err := s.GetState(ctx, "openid", "s")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("pending token last write wins", func(t *testing.T) {
		s, _ := newStore(t)

		require.NoError(t, s.SetPendingToken(ctx, "session", PendingMarker))
		got, err := s.GetPendingToken(ctx, "session")
		require.NoError(t, err)
		assert.Equal(t, PendingMarker, got)

		require.NoError(t, s.SetPendingToken(ctx, "session", "npm-token"))
		got, err = s.GetPendingToken(ctx, "session")
		require.NoError(t, err)
		assert.Equal(t, "npm-token", got)

		require.NoError(t, s.DeletePendingToken(ctx, "session"))
		_, err = s.GetPendingToken(ctx, "session")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("pending token expires", func(t *testing.T) {
		s, advance := newStore(t)

		require.NoError(t, s.SetPendingToken(ctx, "session", PendingMarker))
		advance(testTTL.PendingToken + time.Second)
		_, err := s.GetPendingToken(ctx, "session")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("userinfo cache", func(t *testing.T) {
		s, advance := newStore(t)
		cache, ok := s.(UserInfoCache)
		if !ok {
			t.Skip("backend has no userinfo cache")
		}

		claims := map[string]any{"preferred_username": "alice", "groups": []any{"dev"}}
		require.NoError(t, cache.SetUserInfo(ctx, "openid", "sub-1", claims))

		got, err := cache.GetUserInfo(ctx, "openid", "sub-1")
		require.NoError(t, err)
		assert.Equal(t, claims, got)

		advance(testTTL.UserInfo + time.Second)
		_, err = cache.GetUserInfo(ctx, "openid", "sub-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("groups cache", func(t *testing.T) {
		s, advance := newStore(t)
		cache, ok := s.(GroupsCache)
		if !ok {
			t.Skip("backend has no groups cache")
		}

		require.NoError(t, cache.SetUserGroups(ctx, "gitlab", "sub-1", []string{"a", "b"}))
		got, err := cache.GetUserGroups(ctx, "gitlab", "sub-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)

		advance(testTTL.Groups + time.Second)
		_, err = cache.GetUserGroups(ctx, "gitlab", "sub-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent writers on distinct keys", func(t *testing.T) {
		s, _ := newStore(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.SetState(ctx, "openid", fmt.Sprintf("s%d", i), fmt.Sprintf("n%d", i)))
			}(i)
		}
		wg.Wait()

		for i := 0; i < 10; i++ {
			got, err := s.GetState(ctx, "openid", fmt.Sprintf("s%d", i))
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("n%d", i), got)
		}
	})

	t.Run("operations fail after close", func(t *testing.T) {
		s, _ := newStore(t)

		require.NoError(t, s.Close())
		assert.ErrorIs(t, s.SetState(ctx, "openid", "s", "n"), ErrClosed)
		_, err := s.GetPendingToken(ctx, "session")
		assert.ErrorIs(t, err, ErrClosed)
	})
}
