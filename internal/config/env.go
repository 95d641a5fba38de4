// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv builds a [StructuredConfig] from environment variables via the
// caarlos0/env library. Field mapping comes from the `env` and `envPrefix`
// tags on [StructuredConfig] and its nested types.
//
// Returns a wrapped error if env.ParseAs fails (e.g. a value cannot be
// converted to the target type).
func parseEnv() (*StructuredConfig, error) {
	cfg, err := env.ParseAs[StructuredConfig]()
	if err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}

	return &cfg, nil
}
