package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarev/go-ledger-sync/models"
)

func keyMsg(s string) tea.KeyMsg {
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStatusModel_StatusUpdates(t *testing.T) {
	m := newStatusModel(nil)

	updated, _ := m.Update(statusMsg{Pending: 4, Failed: 1})
	model := updated.(statusModel)

	assert.Equal(t, 4, model.status.Pending)
	assert.Equal(t, 1, model.status.Failed)
	assert.Contains(t, model.View(), "pending: 4")
	assert.Contains(t, model.View(), "failed: 1")
}

func TestStatusModel_ConflictDecisions(t *testing.T) {
	cases := []struct {
		key  string
		want models.ConflictDecision
	}{
		{"s", models.DecisionSync},
		{"c", models.DecisionClear},
		{"esc", models.DecisionCancel},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			m := newStatusModel(nil)

			var got models.ConflictDecision
			conflict := models.IdentityConflict{
				OldPrincipal: "old",
				NewPrincipal: "new",
				Pending:      2,
				Respond:      func(d models.ConflictDecision) { got = d },
			}

			updated, _ := m.Update(conflictMsg(conflict))
			model := updated.(statusModel)
			require.NotNil(t, model.conflict)
			assert.Contains(t, model.View(), "Account changed")

			updated, _ = model.Update(keyMsg(tc.key))
			model = updated.(statusModel)

			assert.Equal(t, tc.want, got)
			assert.Nil(t, model.conflict)
		})
	}
}

func TestStatusModel_UnknownKeyKeepsOverlay(t *testing.T) {
	m := newStatusModel(nil)

	updated, _ := m.Update(conflictMsg(models.IdentityConflict{
		Respond: func(models.ConflictDecision) { t.Fatal("should not respond") },
	}))
	model := updated.(statusModel)

	updated, _ = model.Update(keyMsg("x"))
	model = updated.(statusModel)
	assert.NotNil(t, model.conflict)
}

func TestStatusModel_QuitKey(t *testing.T) {
	m := newStatusModel(nil)

	updated, cmd := m.Update(keyMsg("q"))
	model := updated.(statusModel)

	assert.True(t, model.quitting)
	require.NotNil(t, cmd)
}
