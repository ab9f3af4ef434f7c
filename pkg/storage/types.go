// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package storage provides the correlation store that holds the short-lived
// state of the login flows: OAuth state/nonce pairs, pending web-auth tokens
// and the optional userinfo and group caches.
package storage

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=types.go Store,UserInfoCache,GroupsCache,CachingStore

import (
	"context"
	"errors"
	"strings"
)

// PendingMarker is the value stored for a web-auth session that has not
// completed its provider callback yet.
const PendingMarker = "pending"

// PendingNamespace is the provider-id slot used for pending-token keys, which
// are not tied to a provider.
const PendingNamespace = "webauth"

// Category identifies the kind of entry and therefore its TTL.
type Category string

// Entry categories.
const (
	CategoryState    Category = "state"
	CategoryUserInfo Category = "userinfo"
	CategoryGroups   Category = "groups"
	CategoryPending  Category = "pending"
)

var (
	// ErrNotFound is returned when an entry is absent or has expired. The two
	// cases are indistinguishable to callers.
	ErrNotFound = errors.New("entry not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")
)

// Store holds the correlation state every backend must support.
type Store interface {
	// SetState records the nonce generated for an OAuth state value.
	SetState(ctx context.Context, providerID, state, nonce string) error
	// GetState returns the nonce for a state, or ErrNotFound.
	GetState(ctx context.Context, providerID, state string) (string, error)
	// DeleteState removes a state entry. Deleting a missing entry is not an error.
	DeleteState(ctx context.Context, providerID, state string) error

	// SetPendingToken stores PendingMarker or the final npm token for a session.
	SetPendingToken(ctx context.Context, sessionID, token string) error
	// GetPendingToken returns the value stored for a session, or ErrNotFound.
	GetPendingToken(ctx context.Context, sessionID string) (string, error)
	// DeletePendingToken removes a session entry.
	DeletePendingToken(ctx context.Context, sessionID string) error

	// Close releases backend resources. No operation may follow Close.
	Close() error
}

// UserInfoCache is an optional capability caching userinfo claims.
type UserInfoCache interface {
	SetUserInfo(ctx context.Context, providerID, key string, claims map[string]any) error
	GetUserInfo(ctx context.Context, providerID, key string) (map[string]any, error)
}

// GroupsCache is an optional capability caching vendor group lookups.
type GroupsCache interface {
	SetUserGroups(ctx context.Context, providerID, key string, groups []string) error
	GetUserGroups(ctx context.Context, providerID, key string) ([]string, error)
}

// CachingStore is a Store that implements both optional caches.
type CachingStore interface {
	Store
	UserInfoCache
	GroupsCache
}

// entryKey builds the namespaced key "<category>:<providerID>:<key>".
func entryKey(category Category, providerID, key string) string {
	return strings.Join([]string{string(category), providerID, key}, ":")
}

func pendingKey(sessionID string) string {
	return entryKey(CategoryPending, PendingNamespace, sessionID)
}
