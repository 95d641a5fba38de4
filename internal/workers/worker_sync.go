package workers

import (
	"context"
	"time"

	"github.com/mkarev/go-ledger-sync/internal/service"
)

// SyncWorker starts the periodic reconcile-and-drain job when the worker
// aggregate runs.
type SyncWorker struct {
	ctx      context.Context
	job      service.SyncJob
	interval time.Duration
}

func NewSyncWorker(ctx context.Context, job service.SyncJob, interval time.Duration) *SyncWorker {
	return &SyncWorker{ctx: ctx, job: job, interval: interval}
}

func (w *SyncWorker) Run() {
	w.job.Start(w.ctx, w.interval)
}

// Stop shuts the underlying job down and waits for it to exit.
func (w *SyncWorker) Stop() {
	w.job.Stop()
}
