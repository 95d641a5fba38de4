package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkarev/go-ledger-sync/internal/service"
	"github.com/mkarev/go-ledger-sync/models"
)

// statusModel is the main screen: a one-line sync status plus the identity
// confirmation overlay when a conflict is raised.
type statusModel struct {
	job     service.SyncJob
	spinner spinner.Model

	status   models.OutboxStatus
	conflict *models.IdentityConflict

	quitting bool
}

func newStatusModel(job service.SyncJob) statusModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return statusModel{job: job, spinner: s}
}

func (m statusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = models.OutboxStatus(msg)
		return m, nil

	case conflictMsg:
		conflict := models.IdentityConflict(msg)
		m.conflict = &conflict
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.conflict != nil {
			return m.updateConflict(msg)
		}
		switch msg.String() {
		case "s":
			m.job.TriggerNow()
			return m, nil
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m statusModel) updateConflict(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var decision models.ConflictDecision

	switch msg.String() {
	case "s":
		decision = models.DecisionSync
	case "c":
		decision = models.DecisionClear
	case "esc":
		decision = models.DecisionCancel
	default:
		return m, nil
	}

	m.conflict.Respond(decision)
	m.conflict = nil
	return m, nil
}

func (m statusModel) View() string {
	if m.quitting {
		return ""
	}

	if m.conflict != nil {
		return appStyle.Render(m.conflictView())
	}

	line := fmt.Sprintf("%s pending: %d", m.spinner.View(), m.status.Pending)
	if m.status.Failed > 0 {
		line += warnStyle.Render(fmt.Sprintf("   failed: %d", m.status.Failed))
	}

	return appStyle.Render(
		titleStyle.Render("ledger sync") + "\n\n" +
			line + "\n\n" +
			helpStyle.Render("s sync now    q quit"),
	)
}

func (m statusModel) conflictView() string {
	c := m.conflict
	content := warnStyle.Render("Account changed") + "\n\n"
	content += fmt.Sprintf("This device last synced as %q,\nbut you are now signed in as %q.\n\n", c.OldPrincipal, c.NewPrincipal)
	content += fmt.Sprintf("%d local change(s) have not been uploaded.\n\n", c.Pending)
	content += "s  upload them under the new account\n"
	content += "c  discard them and start clean\n"
	content += "esc  decide later\n"
	return overlayBoxStyle.Render(content)
}
