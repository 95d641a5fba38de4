// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/mock"
	"github.com/mkarev/go-ledger-sync/models"
)

type reconcilerFixture struct {
	rec       *reconciler
	marker    *mock.MockMarkerRepository
	outbox    *mock.MockOutboxRepository
	records   *mock.MockRecordRepository
	processor *mock.MockSyncProcessor
	emitter   *events.Emitter
}

func newReconcilerForTest(t *testing.T, cooldown time.Duration) reconcilerFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	marker := mock.NewMockMarkerRepository(ctrl)
	outbox := mock.NewMockOutboxRepository(ctrl)
	records := mock.NewMockRecordRepository(ctrl)
	processor := mock.NewMockSyncProcessor(ctrl)
	emitter := events.NewEmitter()

	rec := NewReconciler(marker, outbox, records, processor, emitter, logger.Nop(), cooldown, 100*time.Millisecond).(*reconciler)

	return reconcilerFixture{rec: rec, marker: marker, outbox: outbox, records: records, processor: processor, emitter: emitter}
}

// ── marker lifecycle ────────────────────────────────────────────────────────

func TestReconciler_FirstRunClaimsDevice(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("", nil)
	f.marker.EXPECT().Set(ctx, "user-1").Return(nil)
	f.processor.EXPECT().DrainAll(ctx).Return(true, nil)

	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))
}

func TestReconciler_SamePrincipalDrains(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("user-1", nil)
	f.processor.EXPECT().DrainAll(ctx).Return(false, nil)

	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))
}

func TestReconciler_InFlightDrainIsNotAnError(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("user-1", nil)
	f.processor.EXPECT().DrainAll(ctx).Return(false, ErrSyncInFlight)

	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))
}

func TestReconciler_EmptyPrincipalSkips(t *testing.T) {
	f := newReconcilerForTest(t, 0)

	require.NoError(t, f.rec.Reconcile(context.Background(), ""))
}

// ── identity conflict ───────────────────────────────────────────────────────

func TestReconciler_ConflictSync_MovesMarkerOnCleanDrain(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(2, 1, nil)

	var conflict models.IdentityConflict
	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		conflict = payload.(models.IdentityConflict)
		conflict.Respond(models.DecisionSync)
	})

	f.processor.EXPECT().DrainAll(ctx).Return(true, nil)
	f.records.EXPECT().ClearAll(ctx).Return(nil)
	f.marker.EXPECT().Set(ctx, "new-user").Return(nil)

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
	assert.Equal(t, "old-user", conflict.OldPrincipal)
	assert.Equal(t, "new-user", conflict.NewPrincipal)
	assert.Equal(t, 3, conflict.Pending)
}

func TestReconciler_ConflictSync_ClearsTablesBeforeMarkerMoves(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil)

	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		payload.(models.IdentityConflict).Respond(models.DecisionSync)
	})

	// flushed rows belong to the old account remotely; the new session must
	// not inherit them locally
	gomock.InOrder(
		f.processor.EXPECT().DrainAll(ctx).Return(true, nil),
		f.records.EXPECT().ClearAll(ctx).Return(nil),
		f.marker.EXPECT().Set(ctx, "new-user").Return(nil),
	)

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
}

func TestReconciler_ConflictSync_DirtyDrainKeepsOldMarker(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(2, 0, nil)

	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		payload.(models.IdentityConflict).Respond(models.DecisionSync)
	})

	// drain left entries behind: marker must not move
	f.processor.EXPECT().DrainAll(ctx).Return(false, nil)

	err := f.rec.Reconcile(ctx, "new-user")
	assert.ErrorIs(t, err, ErrDrainIncomplete)
}

func TestReconciler_ConflictClear_WipesLocalState(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil)

	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		payload.(models.IdentityConflict).Respond(models.DecisionClear)
	})

	f.outbox.EXPECT().DeleteAll(ctx).Return(nil)
	f.records.EXPECT().ClearAll(ctx).Return(nil)
	f.marker.EXPECT().Set(ctx, "new-user").Return(nil)

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
}

func TestReconciler_EmptyOutboxConflict_ClearsWithoutAsking(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(0, 0, nil)

	asked := false
	f.emitter.On(events.TopicIdentityConflict, func(any) { asked = true })

	f.outbox.EXPECT().DeleteAll(ctx).Return(nil)
	f.records.EXPECT().ClearAll(ctx).Return(nil)
	f.marker.EXPECT().Set(ctx, "new-user").Return(nil)

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
	assert.False(t, asked, "nothing is at risk, no confirmation round-trip")
}

func TestReconciler_ConflictCancel_TouchesNothing(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil)

	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		payload.(models.IdentityConflict).Respond(models.DecisionCancel)
	})

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
}

func TestReconciler_ConflictTimeout_TreatedAsCancel(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil)

	// nobody answers the conflict event
	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
}

func TestReconciler_RepeatedRespondIsIgnored(t *testing.T) {
	f := newReconcilerForTest(t, 0)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil)

	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		c := payload.(models.IdentityConflict)
		c.Respond(models.DecisionCancel)
		c.Respond(models.DecisionClear) // too late, first answer wins
	})

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
}

// ── cooldown ────────────────────────────────────────────────────────────────

func TestReconciler_CooldownSuppressesBackToBackRuns(t *testing.T) {
	f := newReconcilerForTest(t, time.Minute)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("user-1", nil).Times(2)
	f.processor.EXPECT().DrainAll(ctx).Return(true, nil)

	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))

	// second run inside the window: the marker is still checked but no
	// drain happens
	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))
}

func TestReconciler_CooldownDoesNotMaskIdentityChange(t *testing.T) {
	f := newReconcilerForTest(t, time.Minute)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("user-1", nil)
	f.processor.EXPECT().DrainAll(ctx).Return(true, nil)
	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))

	// a different principal shows up inside the cooldown window: the
	// conflict must surface right away
	f.marker.EXPECT().Get(ctx).Return("user-1", nil)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil)

	asked := false
	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		asked = true
		payload.(models.IdentityConflict).Respond(models.DecisionCancel)
	})

	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
	assert.True(t, asked)
}

func TestReconciler_CancelledHandoffIsAskedAgainNextTrigger(t *testing.T) {
	f := newReconcilerForTest(t, time.Minute)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("old-user", nil).Times(2)
	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil).Times(2)

	asked := 0
	f.emitter.On(events.TopicIdentityConflict, func(payload any) {
		asked++
		payload.(models.IdentityConflict).Respond(models.DecisionCancel)
	})

	// a cancelled handoff leaves the question open: the very next trigger
	// asks again even inside the cooldown window
	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
	require.NoError(t, f.rec.Reconcile(ctx, "new-user"))
	assert.Equal(t, 2, asked)
}

func TestReconciler_ResetCooldownAllowsImmediateRun(t *testing.T) {
	f := newReconcilerForTest(t, time.Minute)
	ctx := context.Background()

	f.marker.EXPECT().Get(ctx).Return("user-1", nil).Times(2)
	f.processor.EXPECT().DrainAll(ctx).Return(true, nil).Times(2)

	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))
	f.rec.ResetCooldown()
	require.NoError(t, f.rec.Reconcile(ctx, "user-1"))
}
