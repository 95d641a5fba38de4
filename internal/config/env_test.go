// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"APP_VERSION": "1.2.3",

		"ADAPTER_ADDRESS":         "https://api.example.com",
		"ADAPTER_REQUEST_TIMEOUT": "30s",

		// Storage has nested prefixes: STORAGE_ + DB_
		"STORAGE_DB_DATABASE_URI": "/var/lib/ledger-sync/local.db",

		"WORKERS_SYNC_INTERVAL":   "5m",
		"WORKERS_SYNC_COOLDOWN":   "30s",
		"WORKERS_CONFIRM_TIMEOUT": "2m",
		"WORKERS_BATCH_SIZE":      "25",
		"WORKERS_MAX_ATTEMPTS":    "6",
	}
	setEnvVars(t, envVars)

	cfg, err := parseEnv()
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)
	assert.Equal(t, "1.2.3", cfg.App.Version)

	assert.Equal(t, "https://api.example.com", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Adapter.RequestTimeout)

	assert.Equal(t, "/var/lib/ledger-sync/local.db", cfg.Storage.DB.DSN)

	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 30*time.Second, cfg.Workers.SyncCooldown)
	assert.Equal(t, 2*time.Minute, cfg.Workers.ConfirmTimeout)
	assert.Equal(t, 25, cfg.Workers.BatchSize)
	assert.Equal(t, 6, cfg.Workers.MaxAttempts)
}

func TestParseEnv_PartialFields(t *testing.T) {
	setEnvVars(t, map[string]string{
		"ADAPTER_ADDRESS": "http://localhost:8080",
	})

	cfg, err := parseEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Adapter.HTTPAddress)
	assert.Zero(t, cfg.Adapter.RequestTimeout)
	assert.Empty(t, cfg.Storage.DB.DSN)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	setEnvVars(t, map[string]string{
		"WORKERS_SYNC_INTERVAL": "not-a-duration",
	})

	_, err := parseEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env configs")
}
