// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunabay/go-infounit"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.EnsureNamespace())

	ok, err := s.Exists("k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Read("k")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	data := []byte("value")
	require.NoError(t, s.Write(context.Background(), "k", data))
	data[0] = 'X'

	b, err := s.Read("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), b, "stored bytes must not alias the caller's slice")
	b[0] = 'Y'
	b, err = s.Read("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), b)

	files, size := s.Usage()
	assert.Equal(t, uint64(1), files)
	assert.Equal(t, infounit.ByteCount(5), size)
}

func TestMemStore_WriteCanceled(t *testing.T) {
	s := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Write(ctx, "k", []byte("v")), context.Canceled)
	ok, err := s.Exists("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyIndex(t *testing.T) {
	x := newKeyIndex()
	assert.True(t, x.add("b", 2))
	assert.True(t, x.add("a", 1))
	assert.False(t, x.add("b", 4))

	n, size := x.usage()
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, infounit.ByteCount(5), size)

	assert.Equal(t, []string{"a", "b"}, x.keys("", -1))
	assert.Equal(t, []string{"b"}, x.keys("a", 0))
	assert.Nil(t, x.keys("b", 0))
}
