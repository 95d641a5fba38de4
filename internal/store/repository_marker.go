package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkarev/go-ledger-sync/internal/logger"
)

// MarkerRepositorySQLite stores the single identity marker row.
type MarkerRepositorySQLite struct {
	db     *DB
	logger *logger.Logger
}

func NewMarkerRepositorySQLite(db *DB, log *logger.Logger) *MarkerRepositorySQLite {
	return &MarkerRepositorySQLite{
		db:     db,
		logger: log.GetChildLogger("repository", "marker"),
	}
}

// Get returns the stored principal id. A missing row is not an error: it
// means this device has never completed a sync, and the reconciler treats
// that as a first run.
func (r *MarkerRepositorySQLite) Get(ctx context.Context) (string, error) {
	var principalID string

	err := r.db.QueryRowContext(ctx, getIdentityMarker).Scan(&principalID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Err(err).Str("func", "Get").Msg("error reading identity marker")
		return "", fmt.Errorf("error reading identity marker: %w", err)
	}

	return principalID, nil
}

func (r *MarkerRepositorySQLite) Set(ctx context.Context, principalID string) error {
	if _, err := r.db.ExecContext(ctx, setIdentityMarker, principalID, time.Now()); err != nil {
		r.logger.Err(err).Str("func", "Set").Msg("error writing identity marker")
		return fmt.Errorf("error writing identity marker: %w", err)
	}
	return nil
}
