package core

import (
	"sync"

	"github.com/gitalky/gitalky/internal/git"
	"github.com/gitalky/gitalky/internal/models"
)

// idleRefreshCycles is how many 100ms idle polls pass before the snapshot
// is rebuilt without an explicit refresh request.
const idleRefreshCycles = 10

// PipelineState owns all mutable pipeline state: the current phase, the
// repository snapshot, the command under review, and refresh bookkeeping.
// Transitions are atomic under the mutex; the UI only ever sees complete
// states.
type PipelineState struct {
	mu       sync.RWMutex
	phase    models.Phase
	offline  bool
	repoPath string
	snapshot *git.Snapshot
	preview  *models.CommandPreview
	outcome  *models.OutcomeView
	errText  string

	// Confirmation bookkeeping for dangerous commands.
	confirmID      string
	pendingCommand string

	// Translation generation: late results from an abandoned request are
	// discarded when their generation no longer matches.
	translationGen uint64

	needsRefresh bool
	idleCycles   int
}

func NewPipelineState(repoPath string) *PipelineState {
	return &PipelineState{
		phase:    models.PhaseInput,
		repoPath: repoPath,
	}
}

func (ps *PipelineState) Phase() models.Phase {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.phase
}

func (ps *PipelineState) SetOffline(offline bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.offline = offline
}

func (ps *PipelineState) IsOffline() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.offline
}

func (ps *PipelineState) SetSnapshot(snap *git.Snapshot) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.snapshot = snap
}

// BeginTranslation enters Translating and returns the generation the
// eventual result must carry to be accepted.
func (ps *PipelineState) BeginTranslation() uint64 {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhaseTranslating
	ps.preview = nil
	ps.outcome = nil
	ps.errText = ""
	ps.translationGen++
	return ps.translationGen
}

// AcceptTranslation moves to Preview if gen is still current. A false
// return means the request was cancelled and the result must be dropped.
func (ps *PipelineState) AcceptTranslation(gen uint64, preview *models.CommandPreview) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if gen != ps.translationGen || ps.phase != models.PhaseTranslating {
		return false
	}
	ps.phase = models.PhasePreview
	ps.preview = preview
	return true
}

// FailTranslation moves to ShowingOutput with the failure, if gen is still
// current.
func (ps *PipelineState) FailTranslation(gen uint64, outcome *models.OutcomeView) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if gen != ps.translationGen || ps.phase != models.PhaseTranslating {
		return false
	}
	ps.phase = models.PhaseShowingOutput
	ps.outcome = outcome
	return true
}

// EnterPreview shows a command that did not come from the model (offline
// mode or a direct command).
func (ps *PipelineState) EnterPreview(preview *models.CommandPreview) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhasePreview
	ps.preview = preview
	ps.outcome = nil
	ps.errText = ""
}

// BeginConfirm enters the dangerous-operation gate.
func (ps *PipelineState) BeginConfirm(id, command string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhaseConfirmDangerous
	ps.confirmID = id
	ps.pendingCommand = command
	ps.errText = ""
}

// ConfirmTarget returns the pending command when id matches the open
// confirmation request.
func (ps *PipelineState) ConfirmTarget(id string) (string, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.phase != models.PhaseConfirmDangerous || ps.confirmID != id {
		return "", false
	}
	return ps.pendingCommand, true
}

func (ps *PipelineState) BeginExecuting() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhaseExecuting
	ps.confirmID = ""
	ps.pendingCommand = ""
	ps.errText = ""
}

// FinishExecution records the outcome and, for completed executions,
// schedules a snapshot refresh.
func (ps *PipelineState) FinishExecution(outcome *models.OutcomeView, refresh bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhaseShowingOutput
	ps.outcome = outcome
	if refresh {
		ps.needsRefresh = true
	}
}

// ShowRejection surfaces a validator rejection of a user-edited or direct
// command.
func (ps *PipelineState) ShowRejection(outcome *models.OutcomeView) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhaseShowingOutput
	ps.outcome = outcome
	ps.preview = nil
}

// CancelToInput abandons whatever is in flight. Bumping the generation
// guarantees a late translation result is discarded rather than shown.
func (ps *PipelineState) CancelToInput() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.phase = models.PhaseInput
	ps.preview = nil
	ps.outcome = nil
	ps.errText = ""
	ps.confirmID = ""
	ps.pendingCommand = ""
	ps.translationGen++
}

func (ps *PipelineState) SetError(msg string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.errText = msg
}

// ResetIdle is called on any user activity.
func (ps *PipelineState) ResetIdle() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.idleCycles = 0
}

// TickIdle advances the idle counter and reports whether a snapshot
// rebuild is due. Refresh only happens while the user is between
// requests.
func (ps *PipelineState) TickIdle() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.idleCycles++
	if ps.phase != models.PhaseInput && ps.phase != models.PhaseShowingOutput {
		return false
	}
	return ps.needsRefresh || ps.idleCycles >= idleRefreshCycles
}

// CompleteRefresh installs the rebuilt snapshot and clears both refresh
// triggers.
func (ps *PipelineState) CompleteRefresh(snap *git.Snapshot) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.snapshot = snap
	ps.needsRefresh = false
	ps.idleCycles = 0
}

func (ps *PipelineState) NeedsRefresh() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.needsRefresh
}

// View renders the complete state for the UI.
func (ps *PipelineState) View() models.AppState {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	state := models.AppState{
		Phase:    ps.phase,
		Offline:  ps.offline,
		RepoPath: ps.repoPath,
		Repo:     models.NewRepoView(ps.snapshot),
		Error:    ps.errText,
	}
	if ps.preview != nil {
		p := *ps.preview
		state.Preview = &p
	}
	if ps.outcome != nil {
		o := *ps.outcome
		state.Outcome = &o
	}
	return state
}
