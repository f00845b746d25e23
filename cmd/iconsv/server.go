// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tunabay/go-iconcache"
	"github.com/tunabay/go-infounit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout is the time given to in-flight requests on shutdown.
const shutdownTimeout = 5 * time.Second

// server represents the icon server. It holds one iconcache.Service instance
// and the HTTP server in front of it.
type server struct {
	svc            *iconcache.Service
	httpd          *http.Server
	statusInterval time.Duration
	log            *zap.Logger
}

// newServer creates an icon server instance. Metrics are registered to reg,
// or to a new registry if reg is nil.
func newServer(cfg *config, logger *zap.Logger, reg *prometheus.Registry) (*server, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	store, err := iconcache.NewDirStore(cfg.Dir, cfg.OriginSuffix, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	origin, err := iconcache.NewHTTPOrigin(
		cfg.OriginURL,
		cfg.OriginSuffix,
		iconcache.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create origin: %w", err)
	}
	svc, err := iconcache.New(&iconcache.Config{
		Store:       store,
		Origin:      origin,
		ContentType: cfg.ContentType,
		MaxIconSize: infounit.ByteCount(cfg.MaxIconSize),
		Logger:      logger,
		Metrics:     iconcache.NewPrometheusMetricsRecorder(reg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", iconcache.NewHandler(svc, logger))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	logger.Info("icon server configured",
		zap.String("addr", cfg.Addr),
		zap.String("dir", store.Dir()),
		zap.String("origin", cfg.OriginURL+"{name}"+cfg.OriginSuffix),
		zap.String("max_icon_size", fmt.Sprintf("%.1S", infounit.ByteCount(cfg.MaxIconSize))),
	)

	return &server{
		svc: svc,
		httpd: &http.Server{
			Addr:           cfg.Addr,
			Handler:        mux,
			ReadTimeout:    time.Second * 10,
			WriteTimeout:   time.Minute,
			MaxHeaderBytes: 1 << 12,
		},
		statusInterval: cfg.StatusInterval,
		log:            logger,
	}, nil
}

// serve runs the HTTP server until ctx is done, then shuts it down
// gracefully. It also logs the cache status periodically.
func (sv *server) serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sv.log.Info("listening", zap.String("addr", sv.httpd.Addr))
		if err := sv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpd: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sdctx, sdcancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer sdcancel()
		if err := sv.httpd.Shutdown(sdctx); err != nil { //nolint:contextcheck
			return fmt.Errorf("httpd: shutdown: %w", err)
		}
		sv.log.Info("server stopped", zap.Stringer("status", sv.svc.Status()))
		return nil
	})

	if 0 < sv.statusInterval {
		g.Go(func() error {
			ticker := time.NewTicker(sv.statusInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
				sv.log.Info("cache status", zap.Stringer("status", sv.svc.Status()))
			}
		})
	}

	return g.Wait() //nolint:wrapcheck
}
