package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gitalky/gitalky/internal/apperrors"
	"github.com/gitalky/gitalky/internal/config"
	"github.com/gitalky/gitalky/internal/eventbus"
	"github.com/gitalky/gitalky/internal/git"
	"github.com/gitalky/gitalky/internal/llm"
	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/internal/security"
)

// probeTimeout bounds the model reachability check at startup and on
// manual retry.
const probeTimeout = 3 * time.Second

// QueryTranslator turns a natural-language query into a validated command.
// Satisfied by *llm.Translator.
type QueryTranslator interface {
	Translate(ctx context.Context, query string) (*security.ValidatedCommand, error)
}

// ExecAuditor records completed executions. Satisfied by *audit.Logger.
type ExecAuditor interface {
	LogExec(repoPath, command string, exitCode int) error
}

type translationResult struct {
	gen   uint64
	vc    *security.ValidatedCommand
	err   error
	query string
}

// PipelineService runs the translate-confirm-execute pipeline in its own
// goroutine, driven by UI events and publishing state updates back.
type PipelineService struct {
	repo       *git.Repository
	executor   *git.Executor
	translator QueryTranslator // nil when no API key is configured
	client     llm.Client      // nil when no API key is configured
	validator  *security.Validator
	auditor    ExecAuditor // nil disables exec records
	state      *PipelineState
	eventBus   *eventbus.EventBus
	results    chan translationResult
	timeout    time.Duration
	logExec    bool
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewPipelineService(repo *git.Repository, cfg *config.Config, translator QueryTranslator, client llm.Client, auditor ExecAuditor, eb *eventbus.EventBus) *PipelineService {
	ctx, cancel := context.WithCancel(context.Background())
	return &PipelineService{
		repo:       repo,
		executor:   repo.Executor(),
		translator: translator,
		client:     client,
		validator:  security.NewValidator(),
		auditor:    auditor,
		state:      NewPipelineState(repo.Path()),
		eventBus:   eb,
		results:    make(chan translationResult, 1),
		timeout:    time.Duration(cfg.Git.TimeoutSeconds) * time.Second,
		logExec:    cfg.Behavior.LogCommands,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start probes the model endpoint, reads the initial snapshot, pushes the
// first state to the UI, and enters the event loop.
func (ps *PipelineService) Start() {
	ps.state.SetOffline(!ps.probeModel())

	if snap, err := ps.repo.Snapshot(); err != nil {
		log.Warn().Err(err).Msg("initial snapshot failed")
	} else {
		ps.state.SetSnapshot(snap)
	}

	ps.pushState()
	go ps.eventLoop()
}

func (ps *PipelineService) Stop() {
	ps.cancel()
}

// Offline reports whether the translator is currently bypassed.
func (ps *PipelineService) Offline() bool {
	return ps.state.IsOffline()
}

// probeModel returns true when the model endpoint answers within the probe
// timeout. Without a configured client there is nothing to reach.
func (ps *PipelineService) probeModel() bool {
	if ps.translator == nil || ps.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ps.ctx, probeTimeout)
	defer cancel()
	if err := ps.client.Ping(ctx); err != nil {
		log.Info().Err(err).Msg("model endpoint unreachable, entering offline mode")
		return false
	}
	return true
}

func (ps *PipelineService) eventLoop() {
	for {
		select {
		case <-ps.ctx.Done():
			return
		case event, ok := <-ps.eventBus.UIToCore():
			if !ok {
				return
			}
			ps.handleUIEvent(event)
		case res := <-ps.results:
			ps.handleTranslationResult(res)
		}
	}
}

func (ps *PipelineService) handleUIEvent(event eventbus.UIEvent) {
	// Any real user activity resets the idle refresh counter.
	if _, idle := event.(eventbus.IdleTickEvent); !idle {
		ps.state.ResetIdle()
	}

	switch e := event.(type) {
	case eventbus.SubmitQueryEvent:
		ps.handleSubmit(e.Query)
	case eventbus.ExecuteCommandEvent:
		ps.handleExecuteRequest(e.Command)
	case eventbus.ConfirmResponseEvent:
		ps.handleConfirmResponse(e)
	case eventbus.CancelEvent:
		ps.handleCancel()
	case eventbus.DismissEvent:
		ps.handleDismiss()
	case eventbus.RetryConnectionEvent:
		ps.state.SetOffline(!ps.probeModel())
		ps.pushState()
	case eventbus.IdleTickEvent:
		ps.handleIdleTick(e)
	}
}

func (ps *PipelineService) handleSubmit(query string) {
	if ps.state.Phase() != models.PhaseInput {
		return
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	// Raw git commands and offline input skip translation and go straight
	// to the validator.
	if ps.state.IsOffline() || strings.HasPrefix(query, "git ") {
		command := query
		if !strings.HasPrefix(command, "git ") {
			command = "git " + command
		}
		ps.previewDirect(command)
		return
	}

	gen := ps.state.BeginTranslation()
	ps.pushState()

	go func() {
		vc, err := ps.translator.Translate(ps.ctx, query)
		select {
		case ps.results <- translationResult{gen: gen, vc: vc, err: err, query: query}:
		case <-ps.ctx.Done():
		}
	}()
}

// previewDirect validates a command that bypasses the model.
func (ps *PipelineService) previewDirect(command string) {
	vc, err := ps.validator.Validate(command)
	if err != nil {
		ps.state.ShowRejection(rejectionOutcome(command, err))
		ps.pushState()
		return
	}
	ps.state.EnterPreview(previewFor(vc))
	ps.pushState()
}

func (ps *PipelineService) handleTranslationResult(res translationResult) {
	if res.err != nil {
		outcome := &models.OutcomeView{
			Failed:  true,
			Message: translationFailureMessage(res.err),
		}
		if ps.state.FailTranslation(res.gen, outcome) {
			ps.pushState()
		}
		return
	}

	if ps.state.AcceptTranslation(res.gen, previewFor(res.vc)) {
		ps.pushState()
	} else {
		log.Debug().Str("command", res.vc.Command).Msg("discarding late translation result")
	}
}

// handleExecuteRequest re-validates the (possibly edited) previewed command
// and either runs it or opens the confirmation gate.
func (ps *PipelineService) handleExecuteRequest(command string) {
	if ps.state.Phase() != models.PhasePreview {
		return
	}

	vc, err := ps.validator.Validate(command)
	if err != nil {
		ps.state.ShowRejection(rejectionOutcome(command, err))
		ps.pushState()
		return
	}

	if vc.IsDangerous {
		id := uuid.NewString()
		ps.state.BeginConfirm(id, vc.Command)
		ps.pushState()
		if err := ps.eventBus.SendToUI(eventbus.ConfirmationRequestEvent{
			ID:      id,
			Command: vc.Command,
			Warning: vc.Danger.Description(),
		}); err != nil {
			log.Warn().Err(err).Msg("failed to send confirmation request")
		}
		return
	}

	ps.runCommand(vc.Command)
}

func (ps *PipelineService) handleConfirmResponse(res eventbus.ConfirmResponseEvent) {
	command, ok := ps.state.ConfirmTarget(res.ID)
	if !ok {
		return
	}

	if strings.TrimSpace(res.Input) != "CONFIRM" {
		ps.state.SetError("Must type CONFIRM exactly")
		ps.pushState()
		return
	}
	ps.runCommand(command)
}

func (ps *PipelineService) runCommand(command string) {
	ps.state.BeginExecuting()
	ps.pushState()

	outcome, err := ps.executor.ExecuteWithTimeout(command, ps.timeout)
	if err != nil {
		friendly := apperrors.ExplainGitOutput(err.Error())
		ps.state.FinishExecution(&models.OutcomeView{
			Command:    command,
			Failed:     true,
			Message:    friendly.Message,
			Suggestion: friendly.Suggestion,
		}, false)
		ps.pushState()
		return
	}

	// The exec record is written once, after the executor returns, for
	// zero and non-zero exits alike.
	if ps.auditor != nil && ps.logExec {
		if err := ps.auditor.LogExec(ps.repo.Path(), command, outcome.ExitCode); err != nil {
			log.Warn().Err(err).Msg("failed to write exec audit record")
		}
	}

	view := &models.OutcomeView{
		Command:  command,
		Stdout:   outcome.Stdout,
		Stderr:   outcome.Stderr,
		ExitCode: outcome.ExitCode,
	}
	if outcome.ExitCode != 0 {
		friendly := apperrors.ExplainGitOutput(outcome.Stderr)
		view.Message = friendly.Message
		view.Suggestion = friendly.Suggestion
	}

	ps.state.FinishExecution(view, true)
	ps.pushState()
}

func (ps *PipelineService) handleCancel() {
	switch ps.state.Phase() {
	case models.PhaseTranslating, models.PhasePreview, models.PhaseConfirmDangerous, models.PhaseShowingOutput:
		ps.state.CancelToInput()
		ps.pushState()
	}
}

func (ps *PipelineService) handleDismiss() {
	if ps.state.Phase() != models.PhaseShowingOutput {
		return
	}
	ps.state.CancelToInput()
	ps.pushState()
}

func (ps *PipelineService) handleIdleTick(event eventbus.IdleTickEvent) {
	if event.UserInput {
		ps.state.ResetIdle()
		return
	}
	if !ps.state.TickIdle() {
		return
	}

	snap, err := ps.repo.Snapshot()
	if err != nil {
		log.Warn().Err(err).Msg("snapshot refresh failed")
		return
	}
	ps.state.CompleteRefresh(snap)
	ps.pushState()
}

func (ps *PipelineService) pushState() {
	if err := ps.eventBus.SendToUI(eventbus.StateUpdateEvent{State: ps.state.View()}); err != nil {
		log.Warn().Err(err).Msg("failed to push state to UI")
	}
}

func previewFor(vc *security.ValidatedCommand) *models.CommandPreview {
	preview := &models.CommandPreview{
		Command:     vc.Command,
		IsDangerous: vc.IsDangerous,
	}
	if vc.IsDangerous {
		preview.Warning = vc.Danger.Description()
	}
	return preview
}

func rejectionOutcome(command string, err error) *models.OutcomeView {
	return &models.OutcomeView{
		Command: command,
		Failed:  true,
		Message: "Command rejected by security validator: " + err.Error(),
	}
}

func translationFailureMessage(err error) string {
	friendly := apperrors.Explain(apperrors.Wrap(apperrors.CategoryTranslation, err))
	if friendly.Suggestion != "" {
		return friendly.Message + " " + friendly.Suggestion + " (" + friendly.Raw + ")"
	}
	return friendly.Message + " (" + friendly.Raw + ")"
}
