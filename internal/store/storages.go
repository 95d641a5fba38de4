package store

import (
	"context"
	"fmt"

	"github.com/mkarev/go-ledger-sync/internal/config"
	"github.com/mkarev/go-ledger-sync/internal/logger"
)

// Storages aggregates every repository over the shared SQLite connection.
type Storages struct {
	DB      *DB
	Outbox  OutboxRepository
	Records RecordRepository
	Marker  MarkerRepository
}

// NewStorages opens the local database, runs pending migrations and wires
// the repositories.
func NewStorages(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting local database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("error migrating local database: %w", err)
	}

	return &Storages{
		DB:      db,
		Outbox:  NewOutboxRepositorySQLite(db, log),
		Records: NewRecordRepositorySQLite(db, log),
		Marker:  NewMarkerRepositorySQLite(db, log),
	}, nil
}

// Close releases the underlying database connection.
func (s *Storages) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
