// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"sync"

	"github.com/petar/GoLLRB/llrb"
	"github.com/tunabay/go-infounit"
)

// indexItem represents a cached key in the keyIndex tree.
type indexItem struct {
	key  string
	size infounit.ByteCount
}

// Less compares the keys of the two items and reports the result.
func (i *indexItem) Less(xif llrb.Item) bool {
	x := xif.(*indexItem) //nolint:forcetypeassert
	return i.key < x.key
}

// keyIndex is an ordered set of cached keys with their sizes. It backs the
// Inventory implementations of the stores.
type keyIndex struct {
	tree      *llrb.LLRB
	totalSize infounit.ByteCount
	mu        sync.Mutex
}

func newKeyIndex() *keyIndex {
	return &keyIndex{tree: llrb.New()}
}

// add records key with the given size. It reports whether the key was new.
func (x *keyIndex) add(key string, size infounit.ByteCount) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	old := x.tree.ReplaceOrInsert(&indexItem{key: key, size: size})
	if old != nil {
		x.totalSize -= old.(*indexItem).size //nolint:forcetypeassert
		x.totalSize += size
		return false
	}
	x.totalSize += size
	return true
}

// keys returns up to limit keys greater than after, in ascending order. A
// non-positive limit means no limit.
func (x *keyIndex) keys(after string, limit int) []string {
	x.mu.Lock()
	defer x.mu.Unlock()

	var keys []string
	iterator := func(iif llrb.Item) bool {
		item := iif.(*indexItem) //nolint:forcetypeassert
		if item.key == after {
			return true
		}
		keys = append(keys, item.key)
		return limit <= 0 || len(keys) < limit
	}
	x.tree.AscendGreaterOrEqual(&indexItem{key: after}, iterator)

	return keys
}

func (x *keyIndex) usage() (uint64, infounit.ByteCount) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return uint64(x.tree.Len()), x.totalSize
}
