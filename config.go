// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"github.com/tunabay/go-infounit"
	"go.uber.org/zap"
)

// Config represents the parameters to configure Service creation.
type Config struct {
	// The store holding cached icons. It is required, and it must be safe
	// for concurrent use for the lifetime of the Service.
	Store Store

	// The origin icons are fetched from on a cache miss. It is required.
	Origin Origin

	// The MIME type declared for every icon served by the Service. The
	// type is chosen by the cache and not inferred from the content. If
	// empty, DefaultContentType is used.
	ContentType string

	// The file extensions stripped from requested names to obtain the
	// canonical key, compared case-insensitively. At most one extension is
	// stripped. If nil, DefaultExtensions is used. Use an empty non-nil
	// slice to disable stripping.
	Extensions []string

	// The upper limit on the size of an icon fetched from the origin. Zero
	// value means DefaultMaxIconSize.
	MaxIconSize infounit.ByteCount

	// If true, concurrent misses for the same key each fetch the icon from
	// the origin instead of waiting for the first one. The result is the
	// same either way, since all writers store identical bytes.
	DisableDedup bool

	// If not nil, Service outputs log messages to this Logger.
	Logger *zap.Logger

	// If not nil, Service reports request outcomes to this recorder.
	Metrics MetricsRecorder
}

// DefaultContentType is the content type used when Config.ContentType is
// empty.
const DefaultContentType = "image/jpeg"

// DefaultMaxIconSize defines the default value for Config.MaxIconSize.
const DefaultMaxIconSize = infounit.Megabyte

// DefaultExtensions defines the default value for Config.Extensions.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}
