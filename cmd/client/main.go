package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mkarev/go-ledger-sync/internal/adapter"
	"github.com/mkarev/go-ledger-sync/internal/client"
	"github.com/mkarev/go-ledger-sync/internal/config"
	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/service"
	"github.com/mkarev/go-ledger-sync/internal/store"
	"github.com/mkarev/go-ledger-sync/internal/tui"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// local overrides for development; absence is not an error
	_ = godotenv.Load()

	log := logger.NewClientLogger("ledger-sync-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	remote := adapter.NewHTTPRemoteAdapter(adapter.HTTPClientConfig{
		BaseURL: cfg.Adapter.HTTPAddress,
		Timeout: cfg.Adapter.RequestTimeout,
	})
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		remote.SetToken(token)
	}

	storages, err := store.NewStorages(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}
	defer storages.Close()

	emitter := events.NewEmitter()
	services := service.NewServices(storages, remote, emitter, cfg.Workers, log)

	ui, err := tui.New(services, emitter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating ui")
	}

	app, err := client.NewApp(services, ui, cfg.Workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
