// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/google/uuid"

	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/sanitize"
	"github.com/mkarev/go-ledger-sync/internal/store"
	"github.com/mkarev/go-ledger-sync/models"
)

type outboxService struct {
	outbox  store.OutboxRepository
	emitter *events.Emitter
	logger  *logger.Logger

	now func() time.Time
}

// NewOutboxService wires the durable queue write side.
func NewOutboxService(outbox store.OutboxRepository, emitter *events.Emitter, log *logger.Logger) OutboxService {
	return &outboxService{
		outbox:  outbox,
		emitter: emitter,
		logger:  log.GetChildLogger("service", "outbox"),
		now:     time.Now,
	}
}

// Enqueue validates the mutation key, sanitizes the payload and folds the
// entry into the queue. At most one non-failed entry exists per
// (entity, action, entityID): a repeat enqueue merges its payload into the
// existing entry, newest fields winning, instead of inserting a duplicate.
func (s *outboxService) Enqueue(ctx context.Context, entity string, action models.Action, entityID string, value any) (models.QueueEntry, error) {
	if !models.KnownEntity(entity) {
		return models.QueueEntry{}, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if _, err := models.ParseAction(string(action)); err != nil {
		return models.QueueEntry{}, err
	}
	if entityID == "" {
		// creates may arrive before the UI assigned an id; updates and
		// deletes must reference an existing record
		if action != models.ActionCreate {
			return models.QueueEntry{}, ErrEmptyEntityID
		}
		entityID = uuid.NewString()
	}

	entry := models.QueueEntry{
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Timestamp: s.now(),
	}

	if action != models.ActionDelete {
		s.buildPayload(ctx, &entry, value)
	}

	existing, err := s.outbox.FindActive(ctx, entity, action, entityID)
	switch {
	case err == nil:
		merged, mergeErr := mergePayloads(existing.Payload, entry.Payload)
		if mergeErr != nil {
			return models.QueueEntry{}, fmt.Errorf("error merging payloads: %w", mergeErr)
		}
		if err := s.outbox.UpdatePayload(ctx, existing.ID, merged); err != nil {
			return models.QueueEntry{}, err
		}
		existing.Payload = merged
		s.logger.Debug().Str("key", existing.DedupKey()).Int64("id", existing.ID).Msg("enqueue folded into existing entry")
		entry = existing

	case errors.Is(err, store.ErrEntryNotFound):
		entry, err = s.outbox.Insert(ctx, entry)
		if err != nil {
			return models.QueueEntry{}, err
		}
		s.logger.Debug().Str("key", entry.DedupKey()).Int64("id", entry.ID).Msg("entry enqueued")

	default:
		return models.QueueEntry{}, err
	}

	s.emitStatus(ctx)
	return entry, nil
}

func (s *outboxService) Status(ctx context.Context) (models.OutboxStatus, error) {
	pending, failed, err := s.outbox.Counts(ctx)
	if err != nil {
		return models.OutboxStatus{}, err
	}
	return models.OutboxStatus{Pending: pending, Failed: failed}, nil
}

func (s *outboxService) Retry(ctx context.Context, id int64) error {
	if err := s.outbox.Reset(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Msg("failed entry queued for retry")
	s.emitStatus(ctx)
	return nil
}

func (s *outboxService) Discard(ctx context.Context, id int64) error {
	if err := s.outbox.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("id", id).Msg("failed entry discarded")
	s.emitStatus(ctx)
	return nil
}

// buildPayload runs the clone-safety pipeline over value. When the walk
// yields no structured tree at all, the entry carries a string snapshot so
// the mutation is never lost silently.
func (s *outboxService) buildPayload(ctx context.Context, entry *models.QueueEntry, value any) {
	tree, warnings := sanitize.Sanitize(ctx, value)
	for _, w := range warnings {
		s.logger.Warn().
			Str("key", entry.DedupKey()).
			Str("path", w.Path).
			Str("reason", w.Reason).
			Msg("payload field dropped during sanitization")
	}

	payload, ok := tree.(map[string]any)
	if !ok || payload == nil {
		entry.PayloadSnapshot = fmt.Sprintf("%+v", value)
		reason := "payload sanitization produced no structured tree"
		entry.LastError = &reason
		s.logger.Warn().Str("key", entry.DedupKey()).Msg(reason)
		return
	}

	if err := sanitize.Conform(payload); err != nil {
		s.logger.Warn().Str("key", entry.DedupKey()).Err(err).Msg("payload failed conformance, pruning")
		payload = sanitize.Prune(payload)
	}

	entry.Payload = payload
}

func (s *outboxService) emitStatus(ctx context.Context) {
	status, err := s.Status(ctx)
	if err != nil {
		s.logger.Err(err).Msg("error reading outbox status for event")
		return
	}
	s.emitter.Emit(events.TopicOutboxChanged, status)
}

// mergePayloads overlays next on top of prev. A nil next keeps prev as is,
// so a delete-style repeat cannot erase collected fields.
func mergePayloads(prev, next map[string]any) (map[string]any, error) {
	if next == nil {
		return prev, nil
	}
	if prev == nil {
		return next, nil
	}

	merged := make(map[string]any, len(prev))
	for k, v := range prev {
		merged[k] = v
	}
	if err := mergo.Merge(&merged, next, mergo.WithOverride); err != nil {
		return nil, err
	}
	return merged, nil
}
