// Copyright (c) 2022 Hirotsuna Mizuno. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in
// the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tunabay/go-iconcache"
)

// config holds the server settings. Values are read from the environment
// first, and command line flags override them.
type config struct {
	Addr           string        `env:"ICONCACHE_ADDR" envDefault:":8080"`
	Dir            string        `env:"ICONCACHE_DIR" envDefault:"iconcache"`
	OriginURL      string        `env:"ICONCACHE_ORIGIN_URL" envDefault:"https://wow.zamimg.com/images/wow/icons/medium/"`
	OriginSuffix   string        `env:"ICONCACHE_ORIGIN_SUFFIX" envDefault:".jpg"`
	ContentType    string        `env:"ICONCACHE_CONTENT_TYPE" envDefault:"image/jpeg"`
	MaxIconSize    uint64        `env:"ICONCACHE_MAX_ICON_SIZE" envDefault:"1000000"`
	FetchTimeout   time.Duration `env:"ICONCACHE_FETCH_TIMEOUT" envDefault:"10s"`
	StatusInterval time.Duration `env:"ICONCACHE_STATUS_INTERVAL" envDefault:"30s"`
	Debug          bool          `env:"ICONCACHE_DEBUG"`
}

// loadConfig loads the configuration from environment variables.
func loadConfig() (*config, error) {
	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// validate checks the values that the iconcache package does not check by
// itself.
func (c *config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", iconcache.ErrInvalidConfig)
	case c.MaxIconSize == 0:
		return fmt.Errorf("%w: zero max icon size", iconcache.ErrInvalidConfig)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: non-positive fetch timeout", iconcache.ErrInvalidConfig)
	case c.StatusInterval < 0:
		return fmt.Errorf("%w: negative status interval", iconcache.ErrInvalidConfig)
	}
	return nil
}
