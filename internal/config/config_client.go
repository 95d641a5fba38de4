package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the base URL of the remote authoritative server.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientWorkers contains background sync worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the background sync job fires.
	SyncInterval time.Duration
	// SyncCooldown suppresses full syncs fired in quick succession.
	SyncCooldown time.Duration
	// ConfirmTimeout bounds the identity confirmation wait.
	ConfirmTimeout time.Duration
	// BatchSize caps entries per drain cycle.
	BatchSize int
	// MaxAttempts is the terminal-failure threshold per entry.
	MaxAttempts int
}

// ClientApp holds client-side application settings.
type ClientApp struct {
	// Version is the application version string.
	Version string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport address and timeout.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
}

// GetClientConfig builds and validates a client-specific config view from
// the merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			Version: cfg.App.Version,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:   cfg.Workers.SyncInterval,
			SyncCooldown:   cfg.Workers.SyncCooldown,
			ConfirmTimeout: cfg.Workers.ConfirmTimeout,
			BatchSize:      cfg.Workers.BatchSize,
			MaxAttempts:    cfg.Workers.MaxAttempts,
		},
	}

	return clientCfg, clientCfg.validate()
}
