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

	"github.com/mkarev/go-ledger-sync/internal/adapter"
	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/mock"
	"github.com/mkarev/go-ledger-sync/models"
)

type processorFixture struct {
	proc    *syncProcessor
	outbox  *mock.MockOutboxRepository
	records *mock.MockRecordRepository
	remote  *mock.MockRemoteAdapter
	now     time.Time
}

func newProcessorForTest(t *testing.T) processorFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	outbox := mock.NewMockOutboxRepository(ctrl)
	records := mock.NewMockRecordRepository(ctrl)
	remote := mock.NewMockRemoteAdapter(ctrl)

	proc := NewSyncProcessor(outbox, records, remote, events.NewEmitter(), logger.Nop(), 10, 8).(*syncProcessor)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	proc.now = func() time.Time { return now }
	proc.jitter = func(time.Duration) time.Duration { return 0 }

	return processorFixture{proc: proc, outbox: outbox, records: records, remote: remote, now: now}
}

// ── drain ───────────────────────────────────────────────────────────────────

func TestSyncProcessor_DrainAll_ConfirmsEntries(t *testing.T) {
	f := newProcessorForTest(t)
	ctx := context.Background()

	entries := []models.QueueEntry{
		{ID: 1, Entity: models.EntityInvoices, EntityID: "inv-1", Action: models.ActionCreate, Payload: map[string]any{"number": "A-100"}},
		{ID: 2, Entity: models.EntityRecords, EntityID: "rec-1", Action: models.ActionDelete},
	}

	f.outbox.EXPECT().Due(ctx, f.now, 10).Return(entries, nil)
	f.outbox.EXPECT().Due(ctx, f.now, 10).Return(nil, nil)

	f.remote.EXPECT().
		CreateEntity(ctx, models.EntityInvoices, "inv-1", map[string]any{"number": "A-100"}).
		Return(models.RemoteRecord{RemoteID: "srv-1"}, nil)
	f.outbox.EXPECT().Delete(ctx, int64(1)).Return(nil)
	f.records.EXPECT().MarkSynced(ctx, models.EntityInvoices, "inv-1").Return(nil)

	f.remote.EXPECT().DeleteEntity(ctx, models.EntityRecords, "rec-1").Return(nil)
	f.outbox.EXPECT().Delete(ctx, int64(2)).Return(nil)
	f.records.EXPECT().Delete(ctx, models.EntityRecords, "rec-1").Return(nil)

	f.outbox.EXPECT().Counts(ctx).Return(0, 0, nil).Times(2)

	clean, err := f.proc.DrainAll(ctx)
	require.NoError(t, err)
	assert.True(t, clean)
}

func TestSyncProcessor_PartialFailureDoesNotBlockOthers(t *testing.T) {
	f := newProcessorForTest(t)
	ctx := context.Background()

	entries := []models.QueueEntry{
		{ID: 1, Entity: models.EntityInvoices, EntityID: "inv-1", Action: models.ActionCreate, Payload: map[string]any{"number": "A-100"}},
		{ID: 2, Entity: models.EntityCustomers, EntityID: "cus-1", Action: models.ActionUpdate, Payload: map[string]any{"name": "ACME"}},
	}

	f.outbox.EXPECT().Due(ctx, f.now, 10).Return(entries, nil)
	f.outbox.EXPECT().Due(ctx, f.now, 10).Return(nil, nil)

	// first entry hits a server fault: recoverable, deferred with backoff
	f.remote.EXPECT().
		CreateEntity(ctx, models.EntityInvoices, "inv-1", gomock.Any()).
		Return(models.RemoteRecord{}, &adapter.RemoteError{Status: 502, Msg: "bad gateway"})
	f.outbox.EXPECT().
		MarkAttempt(ctx, int64(1), 1, f.now.Add(30*time.Second), "http 502: bad gateway").
		Return(nil)

	// second entry still goes through
	f.remote.EXPECT().
		UpdateEntity(ctx, models.EntityCustomers, "cus-1", gomock.Any()).
		Return(models.RemoteRecord{}, nil)
	f.outbox.EXPECT().Delete(ctx, int64(2)).Return(nil)
	f.records.EXPECT().MarkSynced(ctx, models.EntityCustomers, "cus-1").Return(nil)

	f.outbox.EXPECT().Counts(ctx).Return(1, 0, nil).Times(2)

	clean, err := f.proc.DrainAll(ctx)
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestSyncProcessor_TerminalRejectionFailsEntry(t *testing.T) {
	f := newProcessorForTest(t)
	ctx := context.Background()

	entry := models.QueueEntry{ID: 1, Entity: models.EntityInvoices, EntityID: "inv-1", Action: models.ActionCreate}

	f.outbox.EXPECT().Due(ctx, f.now, 10).Return([]models.QueueEntry{entry}, nil)
	f.outbox.EXPECT().Due(ctx, f.now, 10).Return(nil, nil)

	f.remote.EXPECT().
		CreateEntity(ctx, models.EntityInvoices, "inv-1", gomock.Any()).
		Return(models.RemoteRecord{}, &adapter.RemoteError{Status: 422, Msg: "number taken", Terminal: true})
	f.outbox.EXPECT().MarkFailed(ctx, int64(1), "http 422: number taken").Return(nil)

	f.outbox.EXPECT().Counts(ctx).Return(0, 1, nil).Times(2)

	clean, err := f.proc.DrainAll(ctx)
	require.NoError(t, err)

	// a terminal entry still sits in the outbox and a Retry would replay it
	assert.False(t, clean)
}

func TestSyncProcessor_MaxAttemptsBecomesTerminal(t *testing.T) {
	f := newProcessorForTest(t)
	ctx := context.Background()

	entry := models.QueueEntry{ID: 1, Entity: models.EntityRecords, EntityID: "rec-1", Action: models.ActionDelete, Attempts: 7}

	f.outbox.EXPECT().Due(ctx, f.now, 10).Return([]models.QueueEntry{entry}, nil)
	f.outbox.EXPECT().Due(ctx, f.now, 10).Return(nil, nil)

	f.remote.EXPECT().
		DeleteEntity(ctx, models.EntityRecords, "rec-1").
		Return(&adapter.RemoteError{Status: 500, Msg: "boom"})
	f.outbox.EXPECT().MarkFailed(ctx, int64(1), "http 500: boom").Return(nil)

	f.outbox.EXPECT().Counts(ctx).Return(0, 1, nil).Times(2)

	_, err := f.proc.DrainAll(ctx)
	require.NoError(t, err)
}

func TestSyncProcessor_ShutdownMidPushLeavesEntryUntouched(t *testing.T) {
	f := newProcessorForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entry := models.QueueEntry{ID: 1, Entity: models.EntityInvoices, EntityID: "inv-1", Action: models.ActionCreate}

	f.outbox.EXPECT().Due(ctx, f.now, 10).Return([]models.QueueEntry{entry}, nil)

	// the push dies because the process is going down, not because the
	// remote rejected anything: no attempt may be burned on it
	f.remote.EXPECT().
		CreateEntity(ctx, models.EntityInvoices, "inv-1", gomock.Any()).
		DoAndReturn(func(context.Context, string, string, map[string]any) (models.RemoteRecord, error) {
			cancel()
			return models.RemoteRecord{}, ctx.Err()
		})

	_, err := f.proc.DrainAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// ── single flight ───────────────────────────────────────────────────────────

func TestSyncProcessor_SyncNow_Coalesces(t *testing.T) {
	f := newProcessorForTest(t)
	ctx := context.Background()

	f.proc.mu.Lock()
	defer f.proc.mu.Unlock()

	ran, err := f.proc.SyncNow(ctx)
	require.NoError(t, err)
	assert.False(t, ran)

	_, err = f.proc.DrainAll(ctx)
	assert.ErrorIs(t, err, ErrSyncInFlight)
}

// ── backoff ─────────────────────────────────────────────────────────────────

func TestSyncProcessor_BackoffStrictlyIncreases(t *testing.T) {
	f := newProcessorForTest(t)
	f.proc.jitter = defaultJitter

	// jitter is capped at a tenth of the window while the window doubles,
	// so delays must grow no matter what the jitter draws
	for i := 0; i < 100; i++ {
		prev := f.proc.backoff(1)
		for attempt := 2; attempt <= 8; attempt++ {
			next := f.proc.backoff(attempt)
			require.Greater(t, next, prev, "attempt %d", attempt)
			prev = next
		}
	}
}

func TestSyncProcessor_BackoffBase(t *testing.T) {
	f := newProcessorForTest(t)

	assert.Equal(t, 30*time.Second, f.proc.backoff(1))
	assert.Equal(t, 60*time.Second, f.proc.backoff(2))
	assert.Equal(t, 8*time.Minute, f.proc.backoff(5))
}
