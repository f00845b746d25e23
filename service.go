// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tunabay/go-infounit"
	"go.uber.org/zap"
)

// Service resolves icon names to icon images, using a Store as a permanent
// cache in front of an Origin. It is safe for concurrent use.
type Service struct {
	store       Store
	origin      Origin
	contentType string
	exts        []string
	maxSize     infounit.ByteCount
	dedup       bool

	numRequested uint64
	numHit       uint64
	numPopulated uint64
	numNotFound  uint64
	numFailed    uint64

	opMap map[string]*opEntry
	mu    sync.Mutex

	log     *zap.Logger
	metrics MetricsRecorder
}

// opEntry represents an in-flight population of a cache entry. Other callers
// requesting the same key wait for the done channel and share the result.
type opEntry struct {
	done chan struct{} // closed when population done
	icon *Icon
	err  error
}

// New creates a Service using the given configuration parameters.
func New(conf *Config) (*Service, error) {
	switch {
	case conf == nil:
		return nil, fmt.Errorf("%w: nil Config", ErrInvalidConfig)
	case conf.Store == nil:
		return nil, fmt.Errorf("%w: nil Store", ErrInvalidConfig)
	case conf.Origin == nil:
		return nil, fmt.Errorf("%w: nil Origin", ErrInvalidConfig)
	}

	s := &Service{
		store:       conf.Store,
		origin:      conf.Origin,
		contentType: conf.ContentType,
		exts:        conf.Extensions,
		maxSize:     conf.MaxIconSize,
		dedup:       !conf.DisableDedup,

		opMap: make(map[string]*opEntry),

		log:     conf.Logger,
		metrics: conf.Metrics,
	}
	if s.contentType == "" {
		s.contentType = DefaultContentType
	}
	if s.exts == nil {
		s.exts = DefaultExtensions
	}
	if s.maxSize == 0 {
		s.maxSize = DefaultMaxIconSize
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = NoopMetricsRecorder{}
	}

	return s, nil
}

// Resolve returns the icon for the name. A known extension is stripped from
// the name first, so "foo" and "foo.jpg" resolve to the same icon.
//
// If the store holds the icon, it is returned without touching the network.
// Otherwise it is fetched from the origin, written to the store, and returned.
// Concurrent calls for the same missing key share a single origin fetch.
//
// The returned error wraps ErrInvalidKey if the name is not acceptable,
// ErrNotFound if the origin has no such icon, and ErrTransient otherwise.
// Nothing is written to the store when an error is returned.
func (s *Service) Resolve(ctx context.Context, name string) (*Icon, error) {
	key := Canonicalize(name, s.exts)
	s.log.Debug("Resolve", zap.String("name", name), zap.String("key", key))

	if err := ValidateKey(key); err != nil {
		s.metrics.RecordResolve(ResultInvalid)
		return nil, err
	}

	s.mu.Lock()
	s.numRequested++
	s.mu.Unlock()

	icon, err := s.lookup(key)
	switch {
	case err != nil:
		return nil, s.fail(key, err)
	case icon != nil:
		s.log.Debug("cache hit", zap.String("key", key))
		s.hit()
		return icon, nil
	}

	if !s.dedup {
		return s.populate(ctx, key)
	}

	for {
		s.mu.Lock()
		op, ok := s.opMap[key]
		if !ok {
			op = &opEntry{done: make(chan struct{})}
			s.opMap[key] = op
			s.mu.Unlock()

			op.icon, op.err = s.populate(ctx, key)

			s.mu.Lock()
			delete(s.opMap, key)
			s.mu.Unlock()
			close(op.done)

			return op.icon, op.err
		}
		s.mu.Unlock()

		// concurrently being populated
		s.log.Debug("icon is being populated concurrently, waiting for completion", zap.String("key", key))
		select {
		case <-ctx.Done():
			return nil, s.fail(key, ctx.Err())
		case <-op.done:
		}
		switch {
		case op.err == nil:
			s.hit()
			shared := *op.icon
			shared.Cached = true
			return &shared, nil

		case isCanceled(op.err) && ctx.Err() == nil:
			// the populating caller gave up, take over
			continue

		case errors.Is(op.err, ErrNotFound):
			s.notFound(key)
			return nil, op.err
		}

		return nil, s.fail(key, op.err)
	}
}

// lookup returns the icon for the key if the store holds it, or nil.
func (s *Service) lookup(key string) (*Icon, error) {
	ok, err := s.store.Exists(key)
	if err != nil || !ok {
		return nil, err
	}
	b, err := s.store.Read(key)
	if err != nil {
		return nil, err
	}

	return s.newIcon(key, b, true), nil
}

// populate fetches the icon for the key from the origin and writes it to the
// store. The store is checked once more first, since a concurrent population
// may have finished since the lookup.
func (s *Service) populate(ctx context.Context, key string) (*Icon, error) {
	if s.dedup {
		icon, err := s.lookup(key)
		switch {
		case err != nil:
			return nil, s.fail(key, err)
		case icon != nil:
			s.hit()
			return icon, nil
		}
	}
	s.log.Debug("icon does not exist, populating", zap.String("key", key))

	if err := s.store.EnsureNamespace(); err != nil {
		return nil, s.fail(key, err)
	}

	startedAt := time.Now()
	b, err := s.fetch(ctx, key)
	elapsed := time.Since(startedAt)
	switch {
	case errors.Is(err, ErrNotFound):
		s.metrics.RecordOriginFetch(ResultNotFound, elapsed)
		s.notFound(key)
		return nil, err

	case err != nil:
		s.metrics.RecordOriginFetch(ResultError, elapsed)
		return nil, s.fail(key, err)
	}
	s.metrics.RecordOriginFetch(ResultPopulated, elapsed)

	if err := s.store.Write(ctx, key, b); err != nil {
		return nil, s.fail(key, err)
	}
	s.metrics.RecordBytesWritten(len(b))
	s.metrics.RecordResolve(ResultPopulated)
	s.mu.Lock()
	s.numPopulated++
	s.mu.Unlock()
	s.log.Info("icon fetched and cached",
		zap.String("key", key),
		zap.Int("size", len(b)),
		zap.Duration("elapsed", elapsed),
	)

	return s.newIcon(key, b, false), nil
}

// fetch reads the whole icon body from the origin, up to the size limit.
func (s *Service) fetch(ctx context.Context, key string) ([]byte, error) {
	body, err := s.origin.Fetch(ctx, key)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	defer body.Close()

	b, err := io.ReadAll(io.LimitReader(body, int64(s.maxSize)+1))
	switch {
	case err != nil:
		return nil, fmt.Errorf("failed to read icon: %w", err)
	case int64(s.maxSize) < int64(len(b)):
		return nil, fmt.Errorf("%w: exceeds %.1S", ErrTooLarge, s.maxSize)
	case len(b) == 0:
		return nil, errors.New("empty icon") //nolint:goerr113
	}

	return b, nil
}

func (s *Service) newIcon(key string, b []byte, cached bool) *Icon {
	return &Icon{
		Key:          key,
		Data:         b,
		ContentType:  s.contentType,
		CacheControl: CacheControl,
		Cached:       cached,
	}
}

func (s *Service) hit() {
	s.metrics.RecordResolve(ResultHit)
	s.mu.Lock()
	s.numHit++
	s.mu.Unlock()
}

func (s *Service) notFound(key string) {
	s.metrics.RecordResolve(ResultNotFound)
	s.mu.Lock()
	s.numNotFound++
	s.mu.Unlock()
	s.log.Info("icon not found at origin", zap.String("key", key))
}

// fail counts and logs a failed request, and returns err wrapped in
// ErrTransient.
func (s *Service) fail(key string, err error) error {
	if !errors.Is(err, ErrTransient) {
		err = fmt.Errorf("%w: %w", ErrTransient, err)
	}
	s.metrics.RecordResolve(ResultError)
	s.mu.Lock()
	s.numFailed++
	s.mu.Unlock()
	s.log.Warn("failed to resolve icon", zap.String("key", key), zap.Error(err))

	return err
}

func isCanceled(err error) bool { return errors.Is(err, context.Canceled) }

// Keys returns up to limit cached keys greater than after, in ascending order.
// It reports false if the store can not enumerate its keys.
func (s *Service) Keys(after string, limit int) ([]string, bool) {
	inv, ok := s.store.(Inventory)
	if !ok {
		return nil, false
	}
	return inv.Keys(after, limit), true
}

// Status represents the service status and statistics.
type Status struct {
	NumRequested uint64             // total number of valid requests.
	NumHit       uint64             // total number of requests served without an origin fetch.
	NumPopulated uint64             // total number of icons fetched and cached.
	NumNotFound  uint64             // total number of icons missing at the origin.
	NumFailed    uint64             // total number of transient failures.
	NumOps       int                // number of populations currently in flight.
	NumFiles     uint64             // number of icons in the store, if known.
	TotalSize    infounit.ByteCount // total size of icons in the store, if known.
}

// String returns the string representation of Status.
func (s Status) String() string {
	return fmt.Sprintf(
		"files=%d, size=%.1S, req=%d, hit=%d, new=%d, notfound=%d, fail=%d, op=%d",
		s.NumFiles,
		s.TotalSize,
		s.NumRequested,
		s.NumHit,
		s.NumPopulated,
		s.NumNotFound,
		s.NumFailed,
		s.NumOps,
	)
}

// Status returns the current service status and statistics.
func (s *Service) Status() *Status {
	st := &Status{}
	if inv, ok := s.store.(Inventory); ok {
		st.NumFiles, st.TotalSize = inv.Usage()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.NumRequested = s.numRequested
	st.NumHit = s.numHit
	st.NumPopulated = s.numPopulated
	st.NumNotFound = s.numNotFound
	st.NumFailed = s.numFailed
	st.NumOps = len(s.opMap)

	return st
}
