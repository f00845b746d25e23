// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"

	"github.com/tunabay/go-infounit"
)

// Store is the interface implemented by the persistent key-to-bytes mapping
// that holds cached icons. Implementations must be safe for concurrent use.
//
// Write must be atomic: a reader either sees no entry for the key or the full
// payload, also when Write fails or its context is canceled. Writing the same
// key twice always happens with identical bytes, so the last writer may win.
type Store interface {
	Exists(key string) (bool, error)
	Read(key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	EnsureNamespace() error
}

// Inventory is the optional interface implemented by stores that can
// enumerate the cached keys and report their usage.
type Inventory interface {
	// Keys returns up to limit keys greater than after, in ascending
	// order.
	Keys(after string, limit int) []string

	// Usage returns the number of cached icons and their total size.
	Usage() (files uint64, size infounit.ByteCount)
}
