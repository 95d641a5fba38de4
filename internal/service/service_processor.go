// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mkarev/go-ledger-sync/internal/adapter"
	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/store"
	"github.com/mkarev/go-ledger-sync/models"
)

const (
	defaultBatchSize   = 50
	defaultMaxAttempts = 8
	backoffBase        = 30 * time.Second
)

type syncProcessor struct {
	outbox  store.OutboxRepository
	records store.RecordRepository
	remote  adapter.RemoteAdapter
	emitter *events.Emitter
	logger  *logger.Logger

	batchSize   int
	maxAttempts int

	now    func() time.Time
	jitter func(time.Duration) time.Duration

	// mu makes drains single-flight: a second trigger while one is
	// running coalesces instead of queueing.
	mu sync.Mutex
}

// NewSyncProcessor wires the drain loop. Zero batchSize and maxAttempts fall
// back to the defaults.
func NewSyncProcessor(
	outbox store.OutboxRepository,
	records store.RecordRepository,
	remote adapter.RemoteAdapter,
	emitter *events.Emitter,
	log *logger.Logger,
	batchSize int,
	maxAttempts int,
) SyncProcessor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &syncProcessor{
		outbox:      outbox,
		records:     records,
		remote:      remote,
		emitter:     emitter,
		logger:      log.GetChildLogger("service", "processor"),
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		now:         time.Now,
		jitter:      defaultJitter,
	}
}

func (s *syncProcessor) SyncNow(ctx context.Context) (bool, error) {
	if !s.mu.TryLock() {
		s.logger.Debug().Msg("sync already in flight, coalescing")
		return false, nil
	}
	defer s.mu.Unlock()

	_, err := s.drain(ctx)
	return true, err
}

func (s *syncProcessor) DrainAll(ctx context.Context) (bool, error) {
	if !s.mu.TryLock() {
		return false, ErrSyncInFlight
	}
	defer s.mu.Unlock()

	return s.drain(ctx)
}

// drain processes due entries oldest first until none remain. A failing
// entry is deferred or marked terminal and never blocks the rest of the
// batch. Returns whether the outbox emptied out entirely: terminal failed
// entries count too, a Retry would replay them.
func (s *syncProcessor) drain(ctx context.Context) (bool, error) {
	processed := make(map[int64]struct{})

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		entries, err := s.outbox.Due(ctx, s.now(), s.batchSize)
		if err != nil {
			return false, err
		}

		progress := false
		for _, entry := range entries {
			if _, seen := processed[entry.ID]; seen {
				continue
			}
			processed[entry.ID] = struct{}{}
			progress = true
			s.processEntry(ctx, entry)
		}

		// no fresh entries means every remaining due row already had its
		// turn this drain; stop rather than spin on it
		if !progress {
			break
		}
	}

	pending, failed, err := s.outbox.Counts(ctx)
	if err != nil {
		return false, err
	}

	s.emitStatus(ctx)
	return pending == 0 && failed == 0, nil
}

func (s *syncProcessor) processEntry(ctx context.Context, entry models.QueueEntry) {
	log := s.logger.With().
		Int64("id", entry.ID).
		Str("key", entry.DedupKey()).
		Logger()

	err := s.push(ctx, entry)
	if err == nil {
		if cleanupErr := s.confirm(ctx, entry); cleanupErr != nil {
			log.Err(cleanupErr).Msg("error confirming synced entry locally")
		}
		log.Debug().Msg("entry confirmed by remote")
		return
	}

	// a push cut short by shutdown is not a delivery failure; leave the
	// entry untouched for the next drain
	if ctx.Err() != nil {
		log.Debug().Msg("push interrupted by shutdown")
		return
	}

	attempt := entry.Attempts + 1

	if adapter.IsTerminal(err) || attempt >= s.maxAttempts {
		if markErr := s.outbox.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
			log.Err(markErr).Msg("error marking entry failed")
			return
		}
		log.Warn().Err(err).Int("attempts", attempt).Msg("entry moved to terminal failed state")
		return
	}

	next := s.now().Add(s.backoff(attempt))
	if markErr := s.outbox.MarkAttempt(ctx, entry.ID, attempt, next, err.Error()); markErr != nil {
		log.Err(markErr).Msg("error recording failed attempt")
		return
	}
	log.Info().Err(err).Int("attempts", attempt).Time("next_attempt_at", next).Msg("entry deferred after recoverable failure")
}

func (s *syncProcessor) push(ctx context.Context, entry models.QueueEntry) error {
	switch entry.Action {
	case models.ActionCreate:
		_, err := s.remote.CreateEntity(ctx, entry.Entity, entry.EntityID, entry.Payload)
		return err
	case models.ActionUpdate:
		_, err := s.remote.UpdateEntity(ctx, entry.Entity, entry.EntityID, entry.Payload)
		return err
	case models.ActionDelete:
		return s.remote.DeleteEntity(ctx, entry.Entity, entry.EntityID)
	default:
		_, err := models.ParseAction(string(entry.Action))
		return err
	}
}

// confirm removes the queue entry and settles the local record after the
// remote acknowledged the mutation.
func (s *syncProcessor) confirm(ctx context.Context, entry models.QueueEntry) error {
	if err := s.outbox.Delete(ctx, entry.ID); err != nil {
		return err
	}

	if entry.Action == models.ActionDelete {
		return s.records.Delete(ctx, entry.Entity, entry.EntityID)
	}
	return s.records.MarkSynced(ctx, entry.Entity, entry.EntityID)
}

// backoff returns the deferral window before the given attempt number may
// run again: base doubles per attempt, plus a jitter capped at a tenth of
// the window so consecutive delays stay strictly increasing.
func (s *syncProcessor) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := backoffBase << (attempt - 1)
	return delay + s.jitter(delay)
}

func defaultJitter(delay time.Duration) time.Duration {
	return time.Duration(rand.Int63n(int64(delay/10) + 1))
}

func (s *syncProcessor) emitStatus(ctx context.Context) {
	pending, failed, err := s.outbox.Counts(ctx)
	if err != nil {
		return
	}
	s.emitter.Emit(events.TopicOutboxChanged, models.OutboxStatus{Pending: pending, Failed: failed})
}
