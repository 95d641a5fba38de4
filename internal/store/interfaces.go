package store

import (
	"context"
	"time"

	"github.com/mkarev/go-ledger-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// OutboxRepository persists pending mutations until the remote confirms them.
type OutboxRepository interface {
	// Insert stores a new entry and returns it with the assigned ID.
	Insert(ctx context.Context, entry models.QueueEntry) (models.QueueEntry, error)

	// FindActive returns the single non-failed entry for the dedup tuple,
	// or ErrEntryNotFound when none exists.
	FindActive(ctx context.Context, entity string, action models.Action, entityID string) (models.QueueEntry, error)

	// UpdatePayload replaces the payload of an existing entry.
	UpdatePayload(ctx context.Context, id int64, payload map[string]any) error

	// Due returns up to limit non-failed entries whose backoff window has
	// passed, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]models.QueueEntry, error)

	// MarkAttempt records a recoverable failure: bumps the attempt counter,
	// defers the entry and stores the error text.
	MarkAttempt(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, lastError string) error

	// MarkFailed flips the entry into its terminal state.
	MarkFailed(ctx context.Context, id int64, lastError string) error

	// Reset clears the failure state so a failed entry becomes eligible again.
	Reset(ctx context.Context, id int64) error

	// Delete removes a confirmed or discarded entry.
	Delete(ctx context.Context, id int64) error

	// DeleteAll empties the outbox.
	DeleteAll(ctx context.Context) error

	// Counts returns the number of pending (non-failed) and failed entries.
	Counts(ctx context.Context) (pending int, failed int, err error)
}

// RecordRepository persists the primary entities mirrored from the UI layer.
type RecordRepository interface {
	SaveInvoice(ctx context.Context, invoice models.Invoice) error
	GetInvoice(ctx context.Context, id string) (models.Invoice, error)
	SaveCustomer(ctx context.Context, customer models.Customer) error
	GetCustomer(ctx context.Context, id string) (models.Customer, error)
	SaveRecord(ctx context.Context, record models.Record) error
	GetRecord(ctx context.Context, id string) (models.Record, error)

	// MarkSynced flips a record's sync status after remote confirmation.
	MarkSynced(ctx context.Context, entity string, id string) error

	// Delete removes a record after a confirmed remote delete.
	Delete(ctx context.Context, entity string, id string) error

	// ClearAll wipes every primary-entity table in one transaction.
	ClearAll(ctx context.Context) error
}

// MarkerRepository persists the single identity marker row.
type MarkerRepository interface {
	// Get returns the stored principal id, or "" when no marker exists yet.
	Get(ctx context.Context) (string, error)

	// Set upserts the marker to the given principal id.
	Set(ctx context.Context, principalID string) error
}
