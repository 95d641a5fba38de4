package service

import (
	"context"
	"sync"
	"time"

	"github.com/mkarev/go-ledger-sync/internal/adapter"
	"github.com/mkarev/go-ledger-sync/internal/logger"
)

type syncJob struct {
	remote     adapter.RemoteAdapter
	reconciler Reconciler
	logger     *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	trigger chan struct{}
	wg      sync.WaitGroup
}

// NewSyncJob creates the background worker that resolves the current
// principal and runs reconciliation on a ticker. The job is idle until
// Start is called.
func NewSyncJob(remote adapter.RemoteAdapter, reconciler Reconciler, log *logger.Logger) SyncJob {
	return &syncJob{
		remote:     remote,
		reconciler: reconciler,
		logger:     log.GetChildLogger("service", "sync_job"),
	}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a goroutine that runs a cycle every interval or whenever
// TriggerNow fires. If interval is zero or negative it defaults to
// 5 minutes. The goroutine exits when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.trigger = make(chan struct{}, 1)
	trigger := j.trigger
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.runCycle(jobCtx)
			case <-trigger:
				// user-initiated: skip the cooldown gate
				j.reconciler.ResetCooldown()
				j.runCycle(jobCtx)
			}
		}
	}()
}

// TriggerNow implements SyncJob. Repeated triggers while a cycle is pending
// collapse into one.
func (j *syncJob) TriggerNow() {
	j.mu.Lock()
	trigger := j.trigger
	j.mu.Unlock()

	if trigger == nil {
		return
	}
	select {
	case trigger <- struct{}{}:
	default:
	}
}

// Stop implements SyncJob. Safe to call when the job is not running.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.trigger = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *syncJob) runCycle(ctx context.Context) {
	principal, err := j.remote.Whoami(ctx)
	if err != nil {
		j.logger.Warn().Err(err).Msg("could not resolve principal, skipping cycle")
		return
	}

	if err := j.reconciler.Reconcile(ctx, principal); err != nil {
		j.logger.Err(err).Msg("reconcile cycle failed")
	}
}
