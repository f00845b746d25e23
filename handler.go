// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package iconcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Listing page sizes of the icon listing endpoint.
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Handler is the HTTP front of a Service. It serves:
//
//	GET /api/icon/{name}  the icon image
//	GET /api/icons        the cached keys, as {"icons": [...], "next": "..."}
//
// The listing accepts "after" and "limit" query parameters, and is only
// available if the store implements Inventory.
type Handler struct {
	svc *Service
	mux *http.ServeMux
	log *zap.Logger
}

// NewHandler creates a Handler serving svc.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		svc: svc,
		mux: http.NewServeMux(),
		log: logger.Named("http"),
	}
	h.mux.HandleFunc("GET /api/icon/{name}", h.serveIcon)
	h.mux.HandleFunc("GET /api/icons", h.serveList)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// serveIcon responds with the icon named by the last path segment. It is 200
// with the image on success, 400 for an unacceptable name, 404 if the origin
// has no such icon, and 500 on any other failure.
func (h *Handler) serveIcon(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	icon, err := h.svc.Resolve(r.Context(), name)
	switch {
	case errors.Is(err, ErrInvalidKey):
		h.errf(w, http.StatusBadRequest, "Invalid icon name.")
		return
	case errors.Is(err, ErrNotFound):
		h.errf(w, http.StatusNotFound, "Icon not found")
		return
	case err != nil:
		h.errf(w, http.StatusInternalServerError, "Error fetching icon")
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", icon.ContentType)
	hdr.Set("Content-Length", strconv.Itoa(icon.Size()))
	hdr.Set("Cache-Control", icon.CacheControl)
	if icon.Cached {
		hdr.Set("X-Cache", "HIT")
	} else {
		hdr.Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(icon.Data); err != nil {
		h.log.Debug("failed to write icon", zap.String("key", icon.Key), zap.Error(err))
	}
}

// iconList is the response body of the listing endpoint.
type iconList struct {
	Icons []string `json:"icons"`
	Next  string   `json:"next,omitempty"`
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request) {
	qvals := r.URL.Query()
	limit := defaultListLimit
	if s := qvals.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		switch {
		case err != nil:
			h.errf(w, http.StatusBadRequest, "Invalid limit %q.", s)
			return
		case v < 1, maxListLimit < v:
			h.errf(w, http.StatusBadRequest, "Invalid limit %d, must be 1..%d.", v, maxListLimit)
			return
		}
		limit = v
	}

	keys, ok := h.svc.Keys(qvals.Get("after"), limit)
	if !ok {
		h.errf(w, http.StatusNotFound, "Listing not supported.")
		return
	}
	list := iconList{Icons: keys}
	if list.Icons == nil {
		list.Icons = []string{}
	}
	if len(keys) == limit {
		list.Next = keys[len(keys)-1]
	}

	b, err := json.Marshal(list)
	if err != nil {
		h.errf(w, http.StatusInternalServerError, "Failed to encode listing.")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		h.log.Debug("failed to write listing", zap.Error(err))
	}
}

// errf responds with a plain text error message.
func (h *Handler) errf(w http.ResponseWriter, code int, format string, v ...any) {
	b := []byte(fmt.Sprintf(format, v...) + "\n")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		h.log.Debug("failed to write error response", zap.Error(err))
	}
}
