// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package models

// ConflictDecision is the caller's answer to an identity-change
// confirmation request.
type ConflictDecision string

const (
	// DecisionSync asks the reconciler to flush the outbox against the
	// remote store first; local tables are cleared only on a clean flush.
	DecisionSync ConflictDecision = "sync"

	// DecisionClear acknowledges data loss: clear local tables and the
	// outbox immediately and adopt the new principal.
	DecisionClear ConflictDecision = "clear"

	// DecisionCancel leaves all local state untouched this cycle; the
	// reconciler will ask again on the next trigger.
	DecisionCancel ConflictDecision = "cancel"
)

// IdentityConflict is emitted when a new authenticated principal takes over
// a device whose outbox still holds unsynced mutations. The receiver must
// call Respond exactly once.
type IdentityConflict struct {
	// OldPrincipal is the persisted identity-marker value.
	OldPrincipal string

	// NewPrincipal is the currently authenticated principal id.
	NewPrincipal string

	// Pending is the number of non-failed outbox entries at stake.
	Pending int

	// Respond delivers the decision back to the suspended reconciliation.
	Respond func(ConflictDecision)
}

// OutboxStatus is the aggregate counter surfaced to the UI layer for the
// "N pending" indicator.
type OutboxStatus struct {
	Pending int
	Failed  int
}
