// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for
// go-ledger-sync. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local persistence backend.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds network settings for the remote server adapter.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds configuration for the background sync worker.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application
	// (e.g. "1.2.3").
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for the local persistence backend.
type Storage struct {
	// DB holds the local database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the device-local SQLite database.
type DB struct {
	// DSN is the SQLite file path used for the local store
	// (e.g. "/home/user/.ledger-sync/local.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Adapter holds network settings used by the remote server adapter.
type Adapter struct {
	// HTTPAddress is the base URL of the remote authoritative server
	// (e.g. "https://api.example.com").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single outbound
	// request (e.g. "15s", "1m").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds configuration for the background sync worker and the
// identity-change reconciler.
type Workers struct {
	// SyncInterval defines how often the background sync job fires.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// SyncCooldown is the minimum interval between two full sync cycles;
	// triggers landing inside the window are suppressed.
	// Env: WORKERS_SYNC_COOLDOWN
	SyncCooldown time.Duration `env:"SYNC_COOLDOWN"`

	// ConfirmTimeout bounds how long the reconciler waits for an answer to
	// an identity-change confirmation before treating it as "cancel".
	// Env: WORKERS_CONFIRM_TIMEOUT
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT"`

	// BatchSize caps how many outbox entries one drain cycle picks up.
	// Env: WORKERS_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// MaxAttempts is the number of consecutive recoverable failures after
	// which an outbox entry is marked terminal.
	// Env: WORKERS_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		build()
}
