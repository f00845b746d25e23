// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import "errors"

// ErrInvalidConfig is the error thrown when the passed configuration parameter
// is not valid.
var ErrInvalidConfig = errors.New("invalid config")

// ErrInvalidKey is the error thrown when an icon name is empty, too long, or
// contains characters that could escape the store directory.
var ErrInvalidKey = errors.New("invalid icon name")

// ErrNotFound is the error returned when the origin has no icon for the key.
// It is never cached, so a later request can succeed once the origin starts
// serving the icon.
var ErrNotFound = errors.New("icon not found")

// ErrTransient is the error returned when the store or the origin failed.
// Nothing is written to the store, and the request may be retried.
var ErrTransient = errors.New("transient error")

// ErrTooLarge is the error thrown when the origin response exceeds the size
// limit. It is always reported wrapped in ErrTransient.
var ErrTooLarge = errors.New("icon too large")
