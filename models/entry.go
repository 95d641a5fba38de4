// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package models

import (
	"fmt"
	"time"
)

// Action is the mutation kind carried by a queue entry.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates a raw action string.
// Returns an error for anything outside create/update/delete.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionCreate, ActionUpdate, ActionDelete:
		return Action(raw), nil
	default:
		return "", fmt.Errorf("unknown action %q", raw)
	}
}

// QueueEntry is one durable pending mutation awaiting remote confirmation.
//
// At most one entry with Failed == false may exist for a given
// (Entity, Action, EntityID) tuple — the dedup invariant, enforced by a
// partial unique index in the outbox table. Entries are created by
// OutboxService.Enqueue, mutated in place by the sync processor on failure,
// deleted on confirmed remote success, and never auto-deleted once failed.
type QueueEntry struct {
	// ID is the store-assigned row identifier.
	ID int64

	// Entity is the primary-entity table discriminator, e.g. "invoices".
	Entity string

	// EntityID is the client-assigned id, stable across retries.
	EntityID string

	// Action is the mutation kind.
	Action Action

	// Payload is the sanitized value tree, nil for deletes or when
	// sanitization yielded nothing usable.
	Payload map[string]any

	// PayloadSnapshot is a string fallback serialization, populated only
	// when structural sanitization failed entirely.
	PayloadSnapshot string

	// Timestamp is the enqueue time; drains process oldest first.
	Timestamp time.Time

	// Attempts counts processing attempts so far.
	Attempts int

	// Failed marks the entry terminal. It requires an explicit Retry or
	// Discard decision; the processor never picks a failed entry up again.
	Failed bool

	// NextAttemptAt defers the entry past a backoff window. Nil means due.
	NextAttemptAt *time.Time

	// LastError describes the most recent failure, nil when none occurred.
	LastError *string
}

// Due reports whether the entry may be processed at the given instant.
func (e QueueEntry) Due(now time.Time) bool {
	if e.Failed {
		return false
	}
	return e.NextAttemptAt == nil || !e.NextAttemptAt.After(now)
}

// DedupKey returns the tuple under which enqueue is idempotent.
func (e QueueEntry) DedupKey() string {
	return e.Entity + "/" + string(e.Action) + "/" + e.EntityID
}
