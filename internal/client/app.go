package client

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/mkarev/go-ledger-sync/internal/config"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/service"
	"github.com/mkarev/go-ledger-sync/internal/tui"
	"github.com/mkarev/go-ledger-sync/internal/workers"
)

type App struct {
	services   *service.Services
	ui         *tui.TUI
	workersCfg config.ClientWorkers
	logger     *logger.Logger
}

func NewApp(services *service.Services, ui *tui.TUI, workersCfg config.ClientWorkers, log *logger.Logger) (*App, error) {
	if services == nil {
		return nil, errors.New("client app: services are required")
	}
	if ui == nil {
		return nil, errors.New("client app: ui is required")
	}

	return &App{
		services:   services,
		ui:         ui,
		workersCfg: workersCfg,
		logger:     log,
	}, nil
}

// Run starts the background sync worker, hands the terminal to the UI and
// blocks until the user quits or the process receives a shutdown signal.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewSyncWorker(ctx, a.services.SyncJob, a.workersCfg.SyncInterval)
	workers.NewWorkers(syncWorker).Run()
	defer syncWorker.Stop()

	// kick an immediate cycle so a fresh start does not wait out the ticker
	a.services.SyncJob.TriggerNow()

	err := a.ui.Run(ctx)
	if errors.Is(err, tui.ErrUserQuit) || errors.Is(err, context.Canceled) {
		a.logger.Info().Msg("client shutting down")
		return nil
	}

	return err
}
