package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gitalky/gitalky/internal/dispatcher"
	"github.com/gitalky/gitalky/internal/eventbus"
	"github.com/gitalky/gitalky/internal/models"
)

// HandleKeyMsg routes a key press according to the current pipeline phase.
func HandleKeyMsg(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	if keyMsg.String() == "ctrl+c" {
		return tea.Quit
	}

	// Every keystroke counts as activity; the next tick reports it to the
	// core so the idle refresh counter restarts.
	appModel.KeyActivity = true

	switch appModel.State.Phase {
	case models.PhaseInput:
		return handleInputKeys(appModel, keyMsg, eb)
	case models.PhaseTranslating:
		if keyMsg.String() == "esc" {
			sendToCore(appModel, eb, eventbus.CancelEvent{})
		}
	case models.PhasePreview:
		return handlePreviewKeys(appModel, keyMsg, eb)
	case models.PhaseConfirmDangerous:
		return handleConfirmKeys(appModel, keyMsg, eb)
	case models.PhaseExecuting:
		// No input accepted while git runs.
	case models.PhaseShowingOutput:
		if keyMsg.String() == "q" {
			return tea.Quit
		}
		sendToCore(appModel, eb, eventbus.DismissEvent{})
	}
	return nil
}

func handleInputKeys(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch keyMsg.String() {
	case "enter":
		if strings.TrimSpace(appModel.Input) == "" {
			return nil
		}
		sendToCore(appModel, eb, eventbus.SubmitQueryEvent{Query: appModel.Input})
		appModel.Input = ""
	case "ctrl+r":
		appModel.Status = "Checking model connection..."
		sendToCore(appModel, eb, eventbus.RetryConnectionEvent{})
	case "backspace":
		if len(appModel.Input) > 0 {
			appModel.Input = appModel.Input[:len(appModel.Input)-1]
		}
	case "esc":
		appModel.Input = ""
	case "q":
		if appModel.Input == "" {
			return tea.Quit
		}
		appModel.Input += "q"
	default:
		if len(keyMsg.String()) == 1 {
			appModel.Input += keyMsg.String()
		}
	}
	return nil
}

func handlePreviewKeys(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	if appModel.EditingCmd {
		switch keyMsg.String() {
		case "enter":
			appModel.EditingCmd = false
			sendToCore(appModel, eb, eventbus.ExecuteCommandEvent{Command: appModel.EditBuffer})
		case "esc":
			appModel.EditingCmd = false
			appModel.EditBuffer = ""
		case "backspace":
			if len(appModel.EditBuffer) > 0 {
				appModel.EditBuffer = appModel.EditBuffer[:len(appModel.EditBuffer)-1]
			}
		default:
			if len(keyMsg.String()) == 1 {
				appModel.EditBuffer += keyMsg.String()
			}
		}
		return nil
	}

	switch keyMsg.String() {
	case "enter":
		if appModel.State.Preview != nil {
			sendToCore(appModel, eb, eventbus.ExecuteCommandEvent{Command: appModel.State.Preview.Command})
		}
	case "e":
		if appModel.State.Preview != nil {
			appModel.EditingCmd = true
			appModel.EditBuffer = appModel.State.Preview.Command
		}
	case "esc":
		sendToCore(appModel, eb, eventbus.CancelEvent{})
	}
	return nil
}

func handleConfirmKeys(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch keyMsg.String() {
	case "enter":
		sendToCore(appModel, eb, eventbus.ConfirmResponseEvent{
			ID:    appModel.ConfirmID,
			Input: appModel.ConfirmInput,
		})
	case "esc":
		appModel.ConfirmInput = ""
		sendToCore(appModel, eb, eventbus.CancelEvent{})
	case "backspace":
		if len(appModel.ConfirmInput) > 0 {
			appModel.ConfirmInput = appModel.ConfirmInput[:len(appModel.ConfirmInput)-1]
		}
	default:
		if len(keyMsg.String()) == 1 {
			appModel.ConfirmInput += keyMsg.String()
		}
	}
	return nil
}

func sendToCore(appModel *models.AppModel, eb *eventbus.EventBus, event eventbus.UIEvent) {
	if err := eb.SendToCore(event); err != nil {
		appModel.Status = "Error sending event: " + err.Error()
	}
}

// HandleCoreEvent applies a state push from the core.
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg dispatcher.CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		prevPhase := appModel.State.Phase
		appModel.State = event.State

		if event.State.Phase != prevPhase {
			appModel.EditingCmd = false
			appModel.EditBuffer = ""
			if event.State.Phase != models.PhaseConfirmDangerous {
				appModel.ConfirmID = ""
				appModel.ConfirmInput = ""
			}
		}
		appModel.Status = statusForState(event.State)
	case eventbus.ConfirmationRequestEvent:
		appModel.ConfirmID = event.ID
		appModel.ConfirmInput = ""
	}
	return nil
}

func statusForState(state models.AppState) string {
	if state.Error != "" {
		return "Error: " + state.Error
	}
	switch state.Phase {
	case models.PhaseInput:
		if state.Offline {
			return "OFFLINE: input runs as a raw git command | Enter: submit | Ctrl+R: reconnect | q: quit"
		}
		return "Enter: submit | Ctrl+R: recheck connection | q: quit"
	case models.PhaseTranslating:
		return "Translating... | Esc: cancel"
	case models.PhasePreview:
		return "Enter: execute | e: edit | Esc: cancel"
	case models.PhaseConfirmDangerous:
		return "Type CONFIRM to execute | Esc: cancel"
	case models.PhaseExecuting:
		return "Running git..."
	case models.PhaseShowingOutput:
		return "Any key to continue | q: quit"
	default:
		return ""
	}
}

type TickMsg time.Time

// TickCmd drives the 100ms poll cycle: UI animation plus the idle counter
// the core uses to schedule snapshot refreshes.
func TickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel, eb *eventbus.EventBus) tea.Cmd {
	if appModel.State.Phase == models.PhaseTranslating || appModel.State.Phase == models.PhaseExecuting {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}

	active := appModel.KeyActivity
	appModel.KeyActivity = false
	sendToCore(appModel, eb, eventbus.IdleTickEvent{UserInput: active})
	return TickCmd()
}
