package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a remote server base address
//	-d local database path (SQLite file)
//	-c/-config json file path with configs
//	-request-timeout outbound request timeout (e.g., "30s", "1m")
//	-sync-interval background sync interval (e.g., "5m")
//	-sync-cooldown minimum interval between full sync cycles
//	-confirm-timeout identity confirmation wait bound
//	-batch-size outbox drain batch size
//	-max-attempts recoverable failures before an entry goes terminal
func ParseFlags() *StructuredConfig {
	var remoteAddress string
	var databaseDSN string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var syncCooldown time.Duration
	var confirmTimeout time.Duration
	var batchSize int
	var maxAttempts int

	flag.StringVar(&remoteAddress, "a", "", "Remote server base address")
	flag.StringVar(&databaseDSN, "d", "", "Local database path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	flag.DurationVar(&syncCooldown, "sync-cooldown", 0, "Minimum interval between full sync cycles")
	flag.DurationVar(&confirmTimeout, "confirm-timeout", 0, "Identity confirmation wait bound")
	flag.IntVar(&batchSize, "batch-size", 0, "Outbox drain batch size")
	flag.IntVar(&maxAttempts, "max-attempts", 0, "Recoverable failures before an entry goes terminal")

	flag.Parse()

	return &StructuredConfig{
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Adapter: Adapter{
			HTTPAddress:    remoteAddress,
			RequestTimeout: requestTimeout,
		},
		Workers: Workers{
			SyncInterval:   syncInterval,
			SyncCooldown:   syncCooldown,
			ConfirmTimeout: confirmTimeout,
			BatchSize:      batchSize,
			MaxAttempts:    maxAttempts,
		},
		JSONFilePath: jsonConfigPath,
	}
}
