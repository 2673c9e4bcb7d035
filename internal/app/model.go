package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gitalky/gitalky/internal/dispatcher"
	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/internal/update"
	"github.com/gitalky/gitalky/ui/components"
)

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Core events re-arm the listener; everything else goes through the
	// shared update path.
	if coreEvent, ok := msg.(dispatcher.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	cmd := update.HandleUpdate(&m.appModel, msg, m.dispatcher.GetEventBus())
	return m, cmd
}

func (m *AppModel) View() string {
	state := m.appModel.State

	var b strings.Builder
	b.WriteString(components.RenderTitle(state.RepoPath, state.Offline, m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderRepoPanel(state.Repo))
	b.WriteString("\n")

	switch state.Phase {
	case models.PhaseInput:
		b.WriteString(components.RenderInput(m.appModel.Input, state.Offline, m.appModel.Width))
	case models.PhaseTranslating:
		b.WriteString(components.RenderLoading("Translating", m.appModel.LoadingDots))
	case models.PhasePreview:
		b.WriteString(components.RenderPreview(state.Preview, m.appModel.EditingCmd, m.appModel.EditBuffer))
	case models.PhaseConfirmDangerous:
		var command, warning string
		if state.Preview != nil {
			command = state.Preview.Command
			warning = state.Preview.Warning
		}
		b.WriteString(components.RenderConfirm(command, warning, m.appModel.ConfirmInput))
	case models.PhaseExecuting:
		b.WriteString(components.RenderLoading("Running git", m.appModel.LoadingDots))
	case models.PhaseShowingOutput:
		b.WriteString(components.RenderOutput(state.Outcome))
	}

	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.appModel.Status, m.appModel.Width))

	return b.String()
}
