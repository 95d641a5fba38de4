package service

import (
	"context"
	"time"

	"github.com/mkarev/go-ledger-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// OutboxService is the write side of the durable queue. UI code calls
// Enqueue for every local mutation; the entry survives restarts until the
// remote confirms it.
type OutboxService interface {
	// Enqueue sanitizes value and stores a pending mutation. Enqueueing the
	// same (entity, action, entityID) tuple again folds into the existing
	// entry instead of creating a duplicate.
	Enqueue(ctx context.Context, entity string, action models.Action, entityID string, value any) (models.QueueEntry, error)

	// Status returns current pending and failed counts.
	Status(ctx context.Context) (models.OutboxStatus, error)

	// Retry clears the terminal state of a failed entry so the next drain
	// picks it up again.
	Retry(ctx context.Context, id int64) error

	// Discard permanently removes a failed entry without syncing it.
	Discard(ctx context.Context, id int64) error
}

// SyncProcessor drains the outbox against the remote server.
type SyncProcessor interface {
	// SyncNow runs one drain cycle. Concurrent calls coalesce: if a drain
	// is already in flight the call returns immediately with ran == false.
	SyncNow(ctx context.Context) (ran bool, err error)

	// DrainAll drains until no due entries remain and reports whether the
	// outbox ended up clean, meaning zero non-failed entries left.
	DrainAll(ctx context.Context) (clean bool, err error)
}

// Reconciler guards local state across principal changes.
type Reconciler interface {
	// Reconcile compares principal against the stored identity marker and
	// either drains normally, or runs the confirmation protocol when the
	// principal changed since the last completed sync.
	Reconcile(ctx context.Context, principal string) error

	// ResetCooldown forgets the last run time so the next Reconcile is not
	// suppressed. Used when the caller knows the sync is user-initiated.
	ResetCooldown()
}

// SyncJob is the background worker driving periodic reconciliation.
type SyncJob interface {
	// Start launches the background goroutine. Any previously running job
	// is stopped first.
	Start(ctx context.Context, interval time.Duration)

	// TriggerNow wakes the job for an immediate cycle without waiting for
	// the next tick. No-op when the job is not running.
	TriggerNow()

	// Stop cancels the background goroutine and blocks until it exits.
	Stop()
}
