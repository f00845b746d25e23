// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

// CacheControl is the caching directive attached to every resolved icon.
// Cached icons never change, so downstream caches may keep them forever.
const CacheControl = "public, max-age=31536000, immutable"

// Icon represents an icon resolved by Service.Resolve. Data may be shared with
// other callers that resolved the same key concurrently, so it must not be
// modified.
type Icon struct {
	Key          string // canonical key
	Data         []byte
	ContentType  string
	CacheControl string

	// Cached reports whether the icon was served without fetching from the
	// origin in this call. It is also true when the icon was fetched by a
	// concurrent call for the same key.
	Cached bool
}

// Size returns the size of the icon in bytes.
func (i *Icon) Size() int { return len(i.Data) }
