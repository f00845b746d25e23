// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"github.com/tunabay/go-infounit"
)

// MemStore is a Store that keeps icons in memory. Its contents do not survive
// the process, so it suits tests and ephemeral deployments only.
type MemStore struct {
	icons map[string][]byte
	index *keyIndex
	mu    sync.RWMutex
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		icons: make(map[string][]byte),
		index: newKeyIndex(),
	}
}

// EnsureNamespace does nothing.
func (*MemStore) EnsureNamespace() error { return nil }

// Exists reports whether an icon for the key is stored.
func (s *MemStore) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.icons[key]
	return ok, nil
}

// Read returns a copy of the icon stored for the key.
func (s *MemStore) Read(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.icons[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, fs.ErrNotExist)
	}
	return append([]byte(nil), b...), nil
}

// Write stores a copy of data for the key, unless ctx is already done.
func (s *MemStore) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}
	b := append([]byte(nil), data...)
	s.mu.Lock()
	s.icons[key] = b
	s.mu.Unlock()
	s.index.add(key, infounit.ByteCount(len(b)))

	return nil
}

// Keys returns up to limit stored keys greater than after, in ascending order.
func (s *MemStore) Keys(after string, limit int) []string {
	return s.index.keys(after, limit)
}

// Usage returns the number of stored icons and their total size.
func (s *MemStore) Usage() (uint64, infounit.ByteCount) {
	return s.index.usage()
}

var (
	_ Store     = (*MemStore)(nil)
	_ Inventory = (*MemStore)(nil)
)
