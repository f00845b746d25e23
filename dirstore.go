// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunabay/go-infounit"
	"go.uber.org/zap"
)

// tmpSuffix is the suffix of the temporary files written before they are
// renamed into place. Temporary file names also start with a dot, which no
// valid key does, so they never collide with cached icons.
const tmpSuffix = ".tmp"

// DirStore is a Store that keeps each icon as a single file named after its
// key in a dedicated directory. Files are written to a temporary file first
// and renamed into place, so a partially written icon is never visible.
type DirStore struct {
	dir   string
	ext   string
	index *keyIndex
	log   *zap.Logger
}

// NewDirStore opens the store directory, creating it if it does not exist.
// Both absolute and relative paths are allowed. A relative path is treated as
// relative from the user-specific cache directory returned by
// os.UserCacheDir(). Icon files are named key+ext, where ext is typically the
// extension matching the content type, such as ".jpg".
//
// Existing icon files are indexed, and temporary files left behind by an
// interrupted write are removed.
func NewDirStore(dir, ext string, logger *zap.Logger) (*DirStore, error) {
	switch {
	case dir == "":
		return nil, fmt.Errorf("%w: empty store dir", ErrInvalidConfig)
	case strings.ContainsAny(ext, `/\`):
		return nil, fmt.Errorf("%w: invalid extension %q", ErrInvalidConfig, ext)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !filepath.IsAbs(dir) {
		ucd, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("%s: can not resolve relative store dir: %w", dir, err)
		}
		dir = filepath.Join(ucd, dir)
	}

	s := &DirStore{
		dir:   dir,
		ext:   ext,
		index: newKeyIndex(),
		log:   logger.Named("dirstore"),
	}
	if err := s.EnsureNamespace(); err != nil {
		return nil, err
	}
	s.log.Info("store directory", zap.String("dir", s.dir))

	if err := s.scan(); err != nil {
		return nil, err
	}

	return s, nil
}

// scan reads the store directory, counts the cached icons and their total
// size, and removes stale temporary files.
func (s *DirStore) scan() error {
	var (
		numStale  int
		numFiles  uint64
		totalSize infounit.ByteCount
	)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%s: failed to read store dir: %w", s.dir, err)
	}
	for _, d := range entries {
		fname := d.Name()
		path := filepath.Join(s.dir, fname)
		switch {
		case d.IsDir():
			s.log.Debug("skip directory in store dir", zap.String("name", fname))
			continue

		case strings.HasPrefix(fname, ".") && strings.HasSuffix(fname, tmpSuffix):
			if err := os.Remove(path); err != nil {
				s.log.Warn("failed to remove stale temporary file", zap.String("path", path), zap.Error(err))
				continue
			}
			numStale++
			continue
		}

		key, ok := strings.CutSuffix(fname, s.ext)
		if !ok || ValidateKey(key) != nil {
			s.log.Debug("skip unexpected file in store dir", zap.String("name", fname))
			continue
		}
		finfo, err := d.Info()
		if err != nil {
			s.log.Warn("failed to stat", zap.String("path", path), zap.Error(err))
			continue
		}
		sz := infounit.ByteCount(finfo.Size())
		s.index.add(key, sz)
		numFiles++
		totalSize += sz
	}
	if numStale != 0 {
		s.log.Info("removed stale temporary files", zap.Int("count", numStale))
	}
	if numFiles != 0 {
		s.log.Info("found cached icons",
			zap.Uint64("count", numFiles),
			zap.String("total", fmt.Sprintf("%.1S", totalSize)),
		)
	}

	return nil
}

// Dir returns the absolute path of the store directory.
func (s *DirStore) Dir() string { return s.dir }

// filePath returns the full path of the icon file for the key.
func (s *DirStore) filePath(key string) string {
	return filepath.Join(s.dir, key+s.ext)
}

// EnsureNamespace creates the store directory if it does not exist.
func (s *DirStore) EnsureNamespace() error {
	if err := os.MkdirAll(s.dir, 0o0700); err != nil {
		return fmt.Errorf("%s: %w", s.dir, err)
	}
	return nil
}

// Exists reports whether an icon file for the key exists.
func (s *DirStore) Exists(key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	finfo, err := os.Stat(s.filePath(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat failed: %w", err)
	case !finfo.Mode().IsRegular():
		return false, fmt.Errorf("%s: not a regular file", finfo.Name())
	}

	return true, nil
}

// Read reads the whole icon file for the key.
func (s *DirStore) Read(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.filePath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	return b, nil
}

// Write writes the icon file for the key atomically. The data is written to a
// temporary file in the store directory, synced, and renamed into place. If
// anything fails, or ctx is done before the rename, the temporary file is
// removed and the store is left unchanged.
func (s *DirStore) Write(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	path := s.filePath(key)

	f, err := os.CreateTemp(s.dir, "."+key+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	tmpPath := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if _, err := f.Write(data); err != nil {
		return fail(fmt.Errorf("failed to write file: %w", err))
	}
	if err := f.Chmod(0o0644); err != nil {
		return fail(fmt.Errorf("failed to chmod file: %w", err))
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("failed to sync file: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err //nolint:wrapcheck
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	sz := infounit.ByteCount(len(data))
	if s.index.add(key, sz) {
		s.log.Debug("icon file created", zap.String("key", key), zap.Int("size", len(data)))
	}

	return nil
}

// Keys returns up to limit cached keys greater than after, in ascending order.
func (s *DirStore) Keys(after string, limit int) []string {
	return s.index.keys(after, limit)
}

// Usage returns the number of cached icon files and their total size.
func (s *DirStore) Usage() (uint64, infounit.ByteCount) {
	return s.index.usage()
}

var (
	_ Store     = (*DirStore)(nil)
	_ Inventory = (*DirStore)(nil)
)
