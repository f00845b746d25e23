// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"fmt"
	"strings"
)

// MaxKeyLen is the maximum length, in bytes, of a canonical key.
const MaxKeyLen = 128

// Canonicalize strips one of the given extensions from the end of name and
// returns the canonical key. Extensions are matched case-insensitively, and
// at most one is removed, so "foo.jpg" and "foo" map to the same key while
// "foo.jpg.jpg" maps to "foo.jpg".
func Canonicalize(name string, exts []string) string {
	for _, ext := range exts {
		if ext == "" || len(name) <= len(ext) {
			continue
		}
		if strings.EqualFold(name[len(name)-len(ext):], ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// ValidateKey checks that key is safe to use as a store file name and as a
// path segment of the origin URL. Only ASCII letters, digits, '_', '-' and
// '.' are allowed, and the key must not be "." or "..".
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case MaxKeyLen < len(key):
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, MaxKeyLen)
	case key == ".", key == "..", strings.HasPrefix(key, "."):
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case 'a' <= c && c <= 'z':
		case 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return fmt.Errorf("%w: %q: unexpected character %q", ErrInvalidKey, key, c)
		}
	}

	return nil
}
