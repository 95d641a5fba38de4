package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkarev/go-ledger-sync/internal/events"
	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/internal/service"
	"github.com/mkarev/go-ledger-sync/models"
)

var ErrUserQuit = errors.New("user quit")

type TUI struct {
	services *service.Services
	emitter  *events.Emitter
	logger   *logger.Logger
}

func New(services *service.Services, emitter *events.Emitter, log *logger.Logger) (*TUI, error) {
	if services == nil {
		return nil, errors.New("tui: services are required")
	}
	return &TUI{services: services, emitter: emitter, logger: log}, nil
}

// Run drives the status screen until the user quits. Outbox changes and
// identity conflicts arrive through the event emitter and are forwarded
// into the running program.
func (t *TUI) Run(ctx context.Context) error {
	model := newStatusModel(t.services.SyncJob)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	offStatus := t.emitter.On(events.TopicOutboxChanged, func(payload any) {
		if status, ok := payload.(models.OutboxStatus); ok {
			program.Send(statusMsg(status))
		}
	})
	defer offStatus()

	offConflict := t.emitter.On(events.TopicIdentityConflict, func(payload any) {
		if conflict, ok := payload.(models.IdentityConflict); ok {
			program.Send(conflictMsg(conflict))
		}
	})
	defer offConflict()

	if status, err := t.services.Outbox.Status(ctx); err == nil {
		go program.Send(statusMsg(status))
	}

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	return ErrUserQuit
}
