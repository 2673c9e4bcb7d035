package models

// Phase is the pipeline state shown to the user.
type Phase int

const (
	PhaseInput Phase = iota
	PhaseTranslating
	PhasePreview
	PhaseConfirmDangerous
	PhaseExecuting
	PhaseShowingOutput
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseTranslating:
		return "translating"
	case PhasePreview:
		return "preview"
	case PhaseConfirmDangerous:
		return "confirm"
	case PhaseExecuting:
		return "executing"
	case PhaseShowingOutput:
		return "output"
	default:
		return "unknown"
	}
}

// CommandPreview is the proposed command awaiting user review.
type CommandPreview struct {
	Command     string
	IsDangerous bool
	Warning     string // Danger description, empty for safe commands
}

// OutcomeView is the result of a finished (or failed) execution.
type OutcomeView struct {
	Command    string
	Stdout     string
	Stderr     string
	ExitCode   int
	Failed     bool   // Execution-level failure: spawn, timeout, rejection
	Message    string // Plain-language summary when something went wrong
	Suggestion string // Optional next step
}

// AppState is the core-owned state pushed to the UI on every change.
type AppState struct {
	Phase    Phase
	Offline  bool
	RepoPath string
	Repo     RepoView
	Preview  *CommandPreview
	Outcome  *OutcomeView
	Error    string // Transient error line, cleared on the next transition
}

// AppModel holds local UI concerns only; everything else arrives via
// AppState updates from the core.
type AppModel struct {
	State AppState

	Input        string // Query input buffer
	EditingCmd   bool   // Preview edit mode
	EditBuffer   string // Edited command text
	ConfirmID    string // Pending confirmation request
	ConfirmInput string // Text typed at the CONFIRM prompt
	KeyActivity  bool   // Keystroke seen since the last tick
	Status       string
	LoadingDots  int
	Width        int
	Height       int
}
