package service

import (
	"github.com/mkarev/go-ledger-sync/internal/adapter"
	"github.com/mkarev/go-ledger-sync/internal/config"
	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/store"
)

type Services struct {
	Outbox     OutboxService
	Processor  SyncProcessor
	Reconciler Reconciler
	SyncJob    SyncJob
}

func NewServices(
	storages *store.Storages,
	remote adapter.RemoteAdapter,
	emitter *events.Emitter,
	cfg config.ClientWorkers,
	log *logger.Logger,
) *Services {
	outboxSvc := NewOutboxService(storages.Outbox, emitter, log)
	processor := NewSyncProcessor(storages.Outbox, storages.Records, remote, emitter, log, cfg.BatchSize, cfg.MaxAttempts)
	reconciler := NewReconciler(storages.Marker, storages.Outbox, storages.Records, processor, emitter, log, cfg.SyncCooldown, cfg.ConfirmTimeout)

	return &Services{
		Outbox:     outboxSvc,
		Processor:  processor,
		Reconciler: reconciler,
		SyncJob:    NewSyncJob(remote, reconciler, log),
	}
}
