// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_Icon(t *testing.T) {
	o := newFakeOrigin(t)
	o.set("inv_sword_04", []byte("sword"))
	svc := newTestService(t, NewMemStore(), o, nil)
	h := NewHandler(svc, zaptest.NewLogger(t))

	rec := serve(h, http.MethodGet, "/api/icon/inv_sword_04.jpg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sword", rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = serve(h, http.MethodGet, "/api/icon/inv_sword_04")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sword", rec.Body.String())
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = serve(h, http.MethodHead, "/api/icon/inv_sword_04")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))

	assert.Equal(t, 1, o.count("inv_sword_04"))
}

func TestHandler_Errors(t *testing.T) {
	o := newFakeOrigin(t)
	o.setStatus("broken", http.StatusInternalServerError)
	svc := newTestService(t, NewMemStore(), o, nil)
	h := NewHandler(svc, nil)

	tests := []struct {
		method, target string
		code           int
		body           string
	}{
		{http.MethodGet, "/api/icon/missing", http.StatusNotFound, "Icon not found"},
		{http.MethodGet, "/api/icon/broken", http.StatusInternalServerError, "Error fetching icon"},
		{http.MethodGet, "/api/icon/a%2Fb", http.StatusBadRequest, "Invalid icon name."},
		{http.MethodGet, "/api/icon/.hidden", http.StatusBadRequest, "Invalid icon name."},
		{http.MethodPost, "/api/icon/missing", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/api/other", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := serve(h, tt.method, tt.target)
		assert.Equal(t, tt.code, rec.Code, "%s %s", tt.method, tt.target)
		if tt.body != "" {
			assert.Equal(t, tt.body, strings.TrimSpace(rec.Body.String()), "%s %s", tt.method, tt.target)
			assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		}
	}
}

func TestHandler_List(t *testing.T) {
	o := newFakeOrigin(t)
	for _, k := range []string{"c", "a", "b"} {
		o.set(k, []byte(k))
	}
	svc := newTestService(t, NewMemStore(), o, nil)
	h := NewHandler(svc, nil)

	rec := serve(h, http.MethodGet, "/api/icons")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"icons":[]}`, rec.Body.String())

	for _, k := range []string{"c", "a", "b"} {
		require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/icon/"+k).Code)
	}

	var list iconList
	rec = serve(h, http.MethodGet, "/api/icons?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"a", "b"}, list.Icons)
	assert.Equal(t, "b", list.Next)

	rec = serve(h, http.MethodGet, "/api/icons?limit=2&after="+list.Next)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"icons":["c"]}`, rec.Body.String())

	for _, q := range []string{"limit=0", "limit=1001", "limit=x"} {
		rec = serve(h, http.MethodGet, "/api/icons?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

// plainStore hides the Inventory methods of MemStore.
type plainStore struct{ Store }

func TestHandler_ListUnsupported(t *testing.T) {
	o := newFakeOrigin(t)
	svc := newTestService(t, plainStore{NewMemStore()}, o, nil)
	h := NewHandler(svc, nil)

	rec := serve(h, http.MethodGet, "/api/icons")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
