// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Origin is the interface implemented by the remote source of truth for
// icons. Fetch returns the icon body for the canonical key. It returns an
// error wrapping ErrNotFound if the origin has no such icon. Any other error
// is treated as transient. The caller closes the returned body.
type Origin interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// DefaultOriginURL is the base URL of the icon host the service was built
// for. Icons are served as DefaultOriginURL + key + DefaultOriginSuffix.
const DefaultOriginURL = "https://wow.zamimg.com/images/wow/icons/medium/"

// DefaultOriginSuffix is the suffix appended to the key in origin URLs.
const DefaultOriginSuffix = ".jpg"

// defaultFetchTimeout is the timeout of the HTTP client created when none is
// given.
const defaultFetchTimeout = 10 * time.Second

// HTTPOriginOption is a functional option for configuring HTTPOrigin.
type HTTPOriginOption func(*HTTPOrigin)

// WithHTTPClient sets the HTTP client used to fetch icons.
func WithHTTPClient(client *http.Client) HTTPOriginOption {
	return func(o *HTTPOrigin) {
		if client != nil {
			o.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent to the origin.
func WithUserAgent(ua string) HTTPOriginOption {
	return func(o *HTTPOrigin) {
		o.userAgent = ua
	}
}

// HTTPOrigin fetches icons over HTTP(S) from base + key + suffix.
type HTTPOrigin struct {
	base      string
	suffix    string
	userAgent string
	client    *http.Client
}

// NewHTTPOrigin creates an origin addressed by the base URL and the suffix.
// The key is path-escaped and inserted between the two as-is, so base usually
// ends with a slash.
func NewHTTPOrigin(base, suffix string, opts ...HTTPOriginOption) (*HTTPOrigin, error) {
	u, err := url.Parse(base)
	switch {
	case err != nil:
		return nil, fmt.Errorf("%w: origin URL: %v", ErrInvalidConfig, err) //nolint:errorlint
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, fmt.Errorf("%w: origin URL: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	case u.Host == "":
		return nil, fmt.Errorf("%w: origin URL: empty host", ErrInvalidConfig)
	case u.RawQuery != "" || u.Fragment != "":
		return nil, fmt.Errorf("%w: origin URL: query and fragment not allowed", ErrInvalidConfig)
	}

	o := &HTTPOrigin{
		base:      base,
		suffix:    suffix,
		userAgent: "go-iconcache",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: defaultFetchTimeout}
	}

	return o, nil
}

// URL returns the origin URL of the icon for the key.
func (o *HTTPOrigin) URL(key string) string {
	return o.base + url.PathEscape(key) + o.suffix
}

// Fetch requests the icon for the key from the origin. A 404 or 410 response
// is reported as ErrNotFound, and every other non-200 response or network
// failure as ErrTransient.
func (o *HTTPOrigin) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil

	case http.StatusNotFound, http.StatusGone:
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrNotFound, key, resp.StatusCode)

	default:
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrTransient, key, resp.StatusCode)
	}
}

// drain discards a bounded amount of the body and closes it, so that the
// connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}

var _ Origin = (*HTTPOrigin)(nil)
