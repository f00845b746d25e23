// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

// Command iconsv is an HTTP server that serves icon images through a
// permanent on-disk cache in front of a remote icon host.
//
// The first request for an icon is forwarded to the icon host, and the image
// is saved to the cache directory. Subsequent requests for the same icon are
// served from the disk without touching the network.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command. Flag defaults are taken from cfg, so
// that flags override environment variables.
func newRootCmd(cfg *config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "iconsv",
		Short:         "Serve icon images through a permanent disk cache",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address, [host]:port")
	f.StringVar(&cfg.Dir, "dir", cfg.Dir, "cache directory, relative to the user cache directory unless absolute")
	f.StringVar(&cfg.OriginURL, "origin-url", cfg.OriginURL, "base URL of the icon host")
	f.StringVar(&cfg.OriginSuffix, "origin-suffix", cfg.OriginSuffix, "suffix appended to icon names in origin URLs")
	f.StringVar(&cfg.ContentType, "content-type", cfg.ContentType, "content type of served icons")
	f.Uint64Var(&cfg.MaxIconSize, "max-icon-size", cfg.MaxIconSize, "maximum icon size in bytes")
	f.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "timeout of a fetch from the icon host")
	f.DurationVar(&cfg.StatusInterval, "status-interval", cfg.StatusInterval, "interval of cache status logging, 0 to disable")
	f.BoolVar(&cfg.Debug, "debug", cfg.Debug, "output debug log messages")

	return cmd
}

// run creates the logger and the server, and serves until ctx is done.
func run(ctx context.Context, cfg *config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sv, err := newServer(cfg, logger, nil)
	if err != nil {
		logger.Error("failed to create server", zap.Error(err))
		return err
	}

	return sv.serve(ctx)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment() //nolint:wrapcheck
	}
	return zap.NewProduction() //nolint:wrapcheck
}
