// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/models"
)

// OutboxRepositorySQLite is the SQLite-backed durable queue.
type OutboxRepositorySQLite struct {
	db     *DB
	logger *logger.Logger
}

func NewOutboxRepositorySQLite(db *DB, log *logger.Logger) *OutboxRepositorySQLite {
	return &OutboxRepositorySQLite{
		db:     db,
		logger: log.GetChildLogger("repository", "outbox"),
	}
}

func (r *OutboxRepositorySQLite) Insert(ctx context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
	payload, err := marshalPayload(entry.Payload)
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("error encoding payload: %w", err)
	}

	res, err := r.db.ExecContext(ctx, insertQueueEntry,
		entry.Entity,
		entry.EntityID,
		string(entry.Action),
		payload,
		entry.PayloadSnapshot,
		entry.Timestamp,
		entry.Attempts,
		entry.Failed,
		entry.NextAttemptAt,
		entry.LastError,
	)
	if err != nil {
		r.logger.Err(err).Str("func", "Insert").Msg("error inserting queue entry")
		return models.QueueEntry{}, fmt.Errorf("error inserting queue entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("error reading inserted id: %w", err)
	}
	entry.ID = id

	return entry, nil
}

func (r *OutboxRepositorySQLite) FindActive(ctx context.Context, entity string, action models.Action, entityID string) (models.QueueEntry, error) {
	row := r.db.QueryRowContext(ctx, findActiveQueueEntry, entity, string(action), entityID)

	entry, err := scanQueueEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.QueueEntry{}, ErrEntryNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("func", "FindActive").Msg("error scanning queue entry")
		return models.QueueEntry{}, fmt.Errorf("error finding queue entry: %w", err)
	}

	return entry, nil
}

func (r *OutboxRepositorySQLite) UpdatePayload(ctx context.Context, id int64, payload map[string]any) error {
	encoded, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("error encoding payload: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, updateQueueEntryPayload, encoded, id); err != nil {
		r.logger.Err(err).Str("func", "UpdatePayload").Int64("id", id).Msg("error updating payload")
		return fmt.Errorf("error updating payload: %w", err)
	}

	return nil
}

// Due selects drainable entries oldest first. The query is built dynamically
// because limit is optional: zero means no LIMIT clause.
func (r *OutboxRepositorySQLite) Due(ctx context.Context, now time.Time, limit int) ([]models.QueueEntry, error) {
	builder := sq.Select(
		"id", "entity", "entity_id", "action", "payload", "payload_snapshot",
		"timestamp", "attempts", "failed", "next_attempt_at", "last_error",
	).
		From("outbox").
		Where(sq.Eq{"failed": 0}).
		Where(sq.Or{
			sq.Eq{"next_attempt_at": nil},
			sq.LtOrEq{"next_attempt_at": now},
		}).
		OrderBy("timestamp ASC", "id ASC")

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building drain query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "Due").Msg("error querying due entries")
		return nil, fmt.Errorf("error querying due entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due entries: %w", err)
	}

	return entries, nil
}

func (r *OutboxRepositorySQLite) MarkAttempt(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, lastError string) error {
	if _, err := r.db.ExecContext(ctx, markQueueEntryAttempt, attempts, nextAttemptAt, lastError, id); err != nil {
		r.logger.Err(err).Str("func", "MarkAttempt").Int64("id", id).Msg("error marking attempt")
		return fmt.Errorf("error marking attempt: %w", err)
	}
	return nil
}

func (r *OutboxRepositorySQLite) MarkFailed(ctx context.Context, id int64, lastError string) error {
	if _, err := r.db.ExecContext(ctx, markQueueEntryFailed, lastError, id); err != nil {
		r.logger.Err(err).Str("func", "MarkFailed").Int64("id", id).Msg("error marking entry failed")
		return fmt.Errorf("error marking entry failed: %w", err)
	}
	return nil
}

func (r *OutboxRepositorySQLite) Reset(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, resetQueueEntry, id)
	if err != nil {
		r.logger.Err(err).Str("func", "Reset").Int64("id", id).Msg("error resetting entry")
		return fmt.Errorf("error resetting entry: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *OutboxRepositorySQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteQueueEntry, id)
	if err != nil {
		r.logger.Err(err).Str("func", "Delete").Int64("id", id).Msg("error deleting entry")
		return fmt.Errorf("error deleting entry: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

func (r *OutboxRepositorySQLite) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteAllQueueEntries); err != nil {
		r.logger.Err(err).Str("func", "DeleteAll").Msg("error emptying outbox")
		return fmt.Errorf("error emptying outbox: %w", err)
	}
	return nil
}

func (r *OutboxRepositorySQLite) Counts(ctx context.Context) (int, int, error) {
	var pending, failed int
	if err := r.db.QueryRowContext(ctx, countQueueEntries).Scan(&pending, &failed); err != nil {
		r.logger.Err(err).Str("func", "Counts").Msg("error counting entries")
		return 0, 0, fmt.Errorf("error counting entries: %w", err)
	}
	return pending, failed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueEntry(row rowScanner) (models.QueueEntry, error) {
	var (
		entry   models.QueueEntry
		action  string
		payload sql.NullString
	)

	err := row.Scan(
		&entry.ID,
		&entry.Entity,
		&entry.EntityID,
		&action,
		&payload,
		&entry.PayloadSnapshot,
		&entry.Timestamp,
		&entry.Attempts,
		&entry.Failed,
		&entry.NextAttemptAt,
		&entry.LastError,
	)
	if err != nil {
		return models.QueueEntry{}, err
	}

	entry.Action = models.Action(action)

	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &entry.Payload); err != nil {
			return models.QueueEntry{}, fmt.Errorf("error decoding payload: %w", err)
		}
	}

	return entry, nil
}

func marshalPayload(payload map[string]any) (any, error) {
	if payload == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}
