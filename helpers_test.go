// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeOrigin is an icon host serving /icons/<key>.jpg from memory, counting
// the requests per key.
type fakeOrigin struct {
	mu      sync.Mutex
	icons   map[string][]byte
	status  map[string]int
	fetches map[string]int

	// If not nil, every request waits for it to be closed.
	gate chan struct{}

	ts *httptest.Server
}

func newFakeOrigin(t *testing.T) *fakeOrigin {
	t.Helper()
	o := &fakeOrigin{
		icons:   make(map[string][]byte),
		status:  make(map[string]int),
		fetches: make(map[string]int),
	}
	o.ts = httptest.NewServer(http.HandlerFunc(o.serveHTTP))
	t.Cleanup(o.ts.Close)

	return o
}

func (o *fakeOrigin) serveHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(r.URL.Path, "/icons/")
	key, ok2 := strings.CutSuffix(key, ".jpg")
	if !ok || !ok2 {
		http.NotFound(w, r)
		return
	}

	o.mu.Lock()
	o.fetches[key]++
	gate := o.gate
	o.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	o.mu.Lock()
	b, found := o.icons[key]
	code := o.status[key]
	o.mu.Unlock()

	switch {
	case code != 0:
		w.WriteHeader(code)
	case !found:
		http.NotFound(w, r)
	default:
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(b)
	}
}

func (o *fakeOrigin) set(key string, b []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.icons[key] = b
}

func (o *fakeOrigin) setStatus(key string, code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status[key] = code
}

func (o *fakeOrigin) hold() chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gate = make(chan struct{})
	return o.gate
}

func (o *fakeOrigin) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fetches[key]
}

func (o *fakeOrigin) total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, v := range o.fetches {
		n += v
	}
	return n
}

func (o *fakeOrigin) origin(t *testing.T) *HTTPOrigin {
	t.Helper()
	origin, err := NewHTTPOrigin(o.ts.URL+"/icons/", ".jpg", WithHTTPClient(o.ts.Client()))
	require.NoError(t, err)
	return origin
}

// countingStore wraps a Store and counts the writes per key.
type countingStore struct {
	Store

	mu     sync.Mutex
	writes map[string]int
}

func newCountingStore(s Store) *countingStore {
	return &countingStore{Store: s, writes: make(map[string]int)}
}

func (s *countingStore) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.writes[key]++
	s.mu.Unlock()
	return s.Store.Write(ctx, key, data)
}

func (s *countingStore) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

// newTestService creates a Service over store and the fake origin.
func newTestService(t *testing.T, store Store, o *fakeOrigin, mod func(*Config)) *Service {
	t.Helper()
	conf := &Config{
		Store:  store,
		Origin: o.origin(t),
		Logger: zaptest.NewLogger(t),
	}
	if mod != nil {
		mod(conf)
	}
	svc, err := New(conf)
	require.NoError(t, err)
	return svc
}
