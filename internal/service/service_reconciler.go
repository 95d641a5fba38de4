// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/store"
	"github.com/mkarev/go-ledger-sync/models"
)

const defaultConfirmTimeout = 5 * time.Minute

type reconciler struct {
	marker    store.MarkerRepository
	outbox    store.OutboxRepository
	records   store.RecordRepository
	processor SyncProcessor
	emitter   *events.Emitter
	logger    *logger.Logger

	cooldown       time.Duration
	confirmTimeout time.Duration

	now func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// NewReconciler wires the identity-change guard. A zero confirmTimeout falls
// back to five minutes; a zero cooldown disables run suppression.
func NewReconciler(
	marker store.MarkerRepository,
	outbox store.OutboxRepository,
	records store.RecordRepository,
	processor SyncProcessor,
	emitter *events.Emitter,
	log *logger.Logger,
	cooldown time.Duration,
	confirmTimeout time.Duration,
) Reconciler {
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}

	return &reconciler{
		marker:         marker,
		outbox:         outbox,
		records:        records,
		processor:      processor,
		emitter:        emitter,
		logger:         log.GetChildLogger("service", "reconciler"),
		cooldown:       cooldown,
		confirmTimeout: confirmTimeout,
		now:            time.Now,
	}
}

// Reconcile is the gate in front of every sync cycle. The identity marker
// records the principal of the last completed sync; when the current
// principal differs, no data moves in either direction until the user picks
// what happens to the pending local work.
func (r *reconciler) Reconcile(ctx context.Context, principal string) error {
	if principal == "" {
		r.logger.Debug().Msg("no principal resolved, skipping reconcile")
		return nil
	}

	stored, err := r.marker.Get(ctx)
	if err != nil {
		return err
	}

	switch stored {
	case "":
		// first run on this device: claim it, then drain
		if err := r.marker.Set(ctx, principal); err != nil {
			return err
		}
		r.logger.Info().Str("principal", principal).Msg("identity marker initialized")
		return r.drainQuietly(ctx)

	case principal:
		// the cooldown rate-limits ordinary same-owner syncs only; an
		// identity change has to be noticed and asked about immediately
		if !r.passCooldown() {
			r.logger.Debug().Msg("sync suppressed by cooldown")
			return nil
		}
		return r.drainQuietly(ctx)

	default:
		return r.resolveConflict(ctx, stored, principal)
	}
}

func (r *reconciler) ResetCooldown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun = time.Time{}
}

// passCooldown reports whether enough time passed since the previous run and
// stamps the current run.
func (r *reconciler) passCooldown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.cooldown > 0 && !r.lastRun.IsZero() && now.Before(r.lastRun.Add(r.cooldown)) {
		return false
	}

	r.lastRun = now
	return true
}

func (r *reconciler) drainQuietly(ctx context.Context) error {
	_, err := r.processor.DrainAll(ctx)
	if errors.Is(err, ErrSyncInFlight) {
		return nil
	}
	return err
}

// resolveConflict runs the confirmation protocol: surface the conflict,
// wait for a decision bounded by the confirm timeout, and apply it. Timeout
// and context cancellation both count as cancel — nothing moves.
func (r *reconciler) resolveConflict(ctx context.Context, stored, principal string) error {
	pending, failed, err := r.outbox.Counts(ctx)
	if err != nil {
		return err
	}

	// nothing queued means nothing the old principal could lose: adopt the
	// new identity without bothering the user
	if pending+failed == 0 {
		r.logger.Info().
			Str("old_principal", stored).
			Str("new_principal", principal).
			Msg("identity changed with empty outbox, clearing local state")
		return r.applyClear(ctx, principal)
	}

	decisionCh := make(chan models.ConflictDecision, 1)
	var once sync.Once
	respond := func(d models.ConflictDecision) {
		once.Do(func() { decisionCh <- d })
	}

	r.logger.Warn().
		Str("old_principal", stored).
		Str("new_principal", principal).
		Int("at_risk", pending+failed).
		Msg("identity changed since last completed sync")

	r.emitter.Emit(events.TopicIdentityConflict, models.IdentityConflict{
		OldPrincipal: stored,
		NewPrincipal: principal,
		Pending:      pending + failed,
		Respond:      respond,
	})

	decision := models.DecisionCancel
	timer := time.NewTimer(r.confirmTimeout)
	defer timer.Stop()

	select {
	case decision = <-decisionCh:
	case <-timer.C:
		r.logger.Warn().Msg("identity confirmation timed out, treating as cancel")
	case <-ctx.Done():
		return ctx.Err()
	}

	switch decision {
	case models.DecisionSync:
		return r.applySync(ctx, principal)
	case models.DecisionClear:
		return r.applyClear(ctx, principal)
	default:
		r.logger.Info().Msg("identity handoff cancelled, local state untouched")
		return nil
	}
}

// applySync pushes the pending work under the old principal's account. The
// marker only moves on a clean drain: anything still pending or failed keeps
// the device owned by the old principal.
func (r *reconciler) applySync(ctx context.Context, principal string) error {
	clean, err := r.processor.DrainAll(ctx)
	if err != nil {
		return err
	}
	if !clean {
		r.logger.Warn().Msg("handoff drain left entries behind, keeping old identity marker")
		return ErrDrainIncomplete
	}

	// the flushed rows now live on the old principal's account remotely;
	// the local tables must not carry them into the new session
	if err := r.records.ClearAll(ctx); err != nil {
		return fmt.Errorf("error clearing local records: %w", err)
	}
	if err := r.marker.Set(ctx, principal); err != nil {
		return err
	}
	r.logger.Info().Str("principal", principal).Msg("identity handoff completed after clean drain")
	return nil
}

// applyClear abandons the old principal's local work entirely.
func (r *reconciler) applyClear(ctx context.Context, principal string) error {
	if err := r.outbox.DeleteAll(ctx); err != nil {
		return fmt.Errorf("error clearing outbox: %w", err)
	}
	if err := r.records.ClearAll(ctx); err != nil {
		return fmt.Errorf("error clearing local records: %w", err)
	}
	if err := r.marker.Set(ctx, principal); err != nil {
		return err
	}

	r.emitter.Emit(events.TopicOutboxChanged, models.OutboxStatus{})
	r.logger.Info().Str("principal", principal).Msg("local state cleared for new principal")
	return nil
}
