// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want string
	}{
		{"inv_sword_04", DefaultExtensions, "inv_sword_04"},
		{"inv_sword_04.jpg", DefaultExtensions, "inv_sword_04"},
		{"inv_sword_04.JPG", DefaultExtensions, "inv_sword_04"},
		{"inv_sword_04.jpeg", DefaultExtensions, "inv_sword_04"},
		{"inv_sword_04.png", DefaultExtensions, "inv_sword_04"},
		{"inv_sword_04.jpg.jpg", DefaultExtensions, "inv_sword_04.jpg"},
		{"inv_sword_04.gif", DefaultExtensions, "inv_sword_04.gif"},
		{"inv_sword_04.jpg", []string{}, "inv_sword_04.jpg"},
		{"inv_sword_04.jpg", nil, "inv_sword_04.jpg"},
		{".jpg", DefaultExtensions, ".jpg"},
		{"", DefaultExtensions, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonicalize(tt.name, tt.exts), "name %q", tt.name)
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{
		"inv_sword_04",
		"INV_Misc_QuestionMark",
		"spell-fire.v2",
		"a",
		strings.Repeat("x", MaxKeyLen),
	}
	for _, key := range valid {
		assert.NoError(t, ValidateKey(key), "key %q", key)
	}

	invalid := []string{
		"",
		".",
		"..",
		".hidden",
		"../secret",
		"a/b",
		`a\b`,
		"a\x00b",
		"a b",
		"a%2Fb",
		"ícone",
		strings.Repeat("x", MaxKeyLen+1),
	}
	for _, key := range invalid {
		assert.ErrorIs(t, ValidateKey(key), ErrInvalidKey, "key %q", key)
	}
}
