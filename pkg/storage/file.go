// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"

	"github.com/stacklok/regoidc/pkg/config"
	"github.com/stacklok/regoidc/pkg/logger"
)

// lockTimeout is the maximum time to wait for the store file lock.
const lockTimeout = 1 * time.Second

// DefaultFilePath returns the store document location under the XDG cache
// directory, creating parent directories as needed.
func DefaultFilePath() (string, error) {
	return xdg.CacheFile(filepath.Join("regoidc", "store.json"))
}

// FileStore persists entries in a single JSON document on disk. The file is
// guarded by an adjacent lock file, so several registry processes on the same
// host can share it. Expired entries are pruned lazily on write.
//
// FileStore implements UserInfoCache but not GroupsCache.
type FileStore struct {
	path string
	ttl  config.TTLConfig
	now  func() time.Time

	// mu serializes access within the process; the lock file covers other
	// processes.
	mu     sync.RWMutex
	closed bool
}

var _ Store = (*FileStore)(nil)
var _ UserInfoCache = (*FileStore)(nil)

type fileDocument struct {
	Entries map[string]fileEntry `json:"entries"`
}

type fileEntry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// NewFileStore creates a FileStore backed by the document at path. An empty
// path selects DefaultFilePath.
func NewFileStore(path string, ttl config.TTLConfig) (*FileStore, error) {
	if path == "" {
		p, err := DefaultFilePath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve store path: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{path: path, ttl: ttl, now: time.Now}, nil
}

// Path returns the location of the store document.
func (s *FileStore) Path() string {
	return s.path
}

// SetState implements Store.
func (s *FileStore) SetState(ctx context.Context, providerID, state, nonce string) error {
	return s.put(ctx, entryKey(CategoryState, providerID, state), nonce, s.ttl.State)
}

// GetState implements Store.
func (s *FileStore) GetState(ctx context.Context, providerID, state string) (string, error) {
	var nonce string
	err := s.get(ctx, entryKey(CategoryState, providerID, state), &nonce)
	return nonce, err
}

// DeleteState implements Store.
func (s *FileStore) DeleteState(ctx context.Context, providerID, state string) error {
	return s.remove(ctx, entryKey(CategoryState, providerID, state))
}

// SetPendingToken implements Store.
func (s *FileStore) SetPendingToken(ctx context.Context, sessionID, token string) error {
	return s.put(ctx, pendingKey(sessionID), token, s.ttl.PendingToken)
}

// GetPendingToken implements Store.
func (s *FileStore) GetPendingToken(ctx context.Context, sessionID string) (string, error) {
	var token string
	err := s.get(ctx, pendingKey(sessionID), &token)
	return token, err
}

// DeletePendingToken implements Store.
func (s *FileStore) DeletePendingToken(ctx context.Context, sessionID string) error {
	return s.remove(ctx, pendingKey(sessionID))
}

// SetUserInfo implements UserInfoCache.
func (s *FileStore) SetUserInfo(ctx context.Context, providerID, key string, claims map[string]any) error {
	return s.put(ctx, entryKey(CategoryUserInfo, providerID, key), claims, s.ttl.UserInfo)
}

// GetUserInfo implements UserInfoCache.
func (s *FileStore) GetUserInfo(ctx context.Context, providerID, key string) (map[string]any, error) {
	var claims map[string]any
	if err := s.get(ctx, entryKey(CategoryUserInfo, providerID, key), &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Close marks the store closed. The document stays on disk.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) put(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal store entry: %w", err)
	}
	return s.update(ctx, func(doc *fileDocument) {
		doc.Entries[key] = fileEntry{Value: raw, ExpiresAt: s.now().Add(ttl)}
	})
}

func (s *FileStore) remove(ctx context.Context, key string) error {
	return s.update(ctx, func(doc *fileDocument) {
		delete(doc.Entries, key)
	})
}

// get decodes the live entry for key into out. The read and the expiry check
// happen on the same snapshot, but another process may replace the document
// right after; callers treat any miss as expiry.
func (s *FileStore) get(ctx context.Context, key string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	fileLock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryRLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout after %v", lockTimeout)
	}
	defer unlock(fileLock)

	doc, err := s.read()
	if err != nil {
		return err
	}
	e, ok := doc.Entries[key]
	if !ok || !s.now().Before(e.ExpiresAt) {
		return ErrNotFound
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return fmt.Errorf("failed to unmarshal store entry: %w", err)
	}
	return nil
}

// update applies fn to the document under an exclusive lock and writes the
// result back, dropping expired entries on the way.
func (s *FileStore) update(ctx context.Context, fn func(doc *fileDocument)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	fileLock := flock.New(s.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout after %v", lockTimeout)
	}
	defer unlock(fileLock)

	doc, err := s.read()
	if err != nil {
		return err
	}

	now := s.now()
	for k, e := range doc.Entries {
		if !now.Before(e.ExpiresAt) {
			delete(doc.Entries, k)
		}
	}

	fn(doc)
	return s.write(doc)
}

func (s *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{Entries: make(map[string]fileEntry)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]fileEntry)
	}
	return doc, nil
}

func (s *FileStore) write(doc *fileDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename has happened.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func unlock(l *flock.Flock) {
	if err := l.Unlock(); err != nil {
		logger.Warnw("failed to release store lock", "path", l.Path(), "error", err)
	}
}
