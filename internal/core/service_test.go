package core

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitalky/gitalky/internal/config"
	"github.com/gitalky/gitalky/internal/eventbus"
	"github.com/gitalky/gitalky/internal/git"
	"github.com/gitalky/gitalky/internal/llm"
	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/internal/security"
)

type stubTranslator struct {
	mu      sync.Mutex
	vc      *security.ValidatedCommand
	err     error
	calls   int
	release chan struct{} // when set, Translate blocks until closed
}

func (s *stubTranslator) Translate(ctx context.Context, _ string) (*security.ValidatedCommand, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.vc, nil
}

func (s *stubTranslator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubPinger struct {
	mu  sync.Mutex
	err error
}

func (s *stubPinger) Translate(context.Context, string, *llm.RepoContext) (string, error) {
	return "", errors.New("not used")
}

func (s *stubPinger) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubPinger) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type countingAuditor struct {
	mu      sync.Mutex
	records []string
}

func (c *countingAuditor) LogExec(repoPath, command string, exitCode int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, command)
	return nil
}

func (c *countingAuditor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func initServiceRepo(t *testing.T) *git.Repository {
	t.Helper()
	dir := t.TempDir()

	runGit := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	runGit("init")
	runGit("config", "user.name", "Test User")
	runGit("config", "user.email", "test@example.com")
	runGit("config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	runGit("add", ".")
	runGit("commit", "-m", "initial")

	return git.Open(dir)
}

type serviceHarness struct {
	service    *PipelineService
	bus        *eventbus.EventBus
	translator *stubTranslator
	auditor    *countingAuditor
}

func startService(t *testing.T, translator *stubTranslator, online bool) *serviceHarness {
	t.Helper()

	repo := initServiceRepo(t)
	bus := eventbus.NewEventBus()
	auditor := &countingAuditor{}

	var client llm.Client
	if online {
		client = &stubPinger{}
	}
	var qt QueryTranslator
	if translator != nil {
		qt = translator
	}

	svc := NewPipelineService(repo, config.Default(), qt, client, auditor, bus)
	svc.Start()
	t.Cleanup(svc.Stop)

	return &serviceHarness{service: svc, bus: bus, translator: translator, auditor: auditor}
}

// waitForState reads core events until one satisfies the predicate.
func waitForState(t *testing.T, bus *eventbus.EventBus, match func(models.AppState) bool) models.AppState {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-bus.CoreToUI():
			if update, ok := event.(eventbus.StateUpdateEvent); ok && match(update.State) {
				return update.State
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
			return models.AppState{}
		}
	}
}

func waitForConfirmRequest(t *testing.T, bus *eventbus.EventBus) eventbus.ConfirmationRequestEvent {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-bus.CoreToUI():
			if req, ok := event.(eventbus.ConfirmationRequestEvent); ok {
				return req
			}
		case <-deadline:
			t.Fatal("timed out waiting for confirmation request")
			return eventbus.ConfirmationRequestEvent{}
		}
	}
}

func inPhase(phase models.Phase) func(models.AppState) bool {
	return func(s models.AppState) bool { return s.Phase == phase }
}

func TestSubmitQueryTranslatesToPreview(t *testing.T) {
	translator := &stubTranslator{vc: &security.ValidatedCommand{Command: "git status"}}
	h := startService(t, translator, true)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "show me what changed"}))

	waitForState(t, h.bus, inPhase(models.PhaseTranslating))
	state := waitForState(t, h.bus, inPhase(models.PhasePreview))
	assert.Equal(t, "git status", state.Preview.Command)
	assert.False(t, state.Preview.IsDangerous)
	assert.Equal(t, 1, translator.callCount())
}

func TestEmptyQueryIgnored(t *testing.T) {
	translator := &stubTranslator{vc: &security.ValidatedCommand{Command: "git status"}}
	h := startService(t, translator, true)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "   "}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, translator.callCount())
}

func TestOfflineSubmitSkipsTranslator(t *testing.T) {
	h := startService(t, nil, false)

	state := waitForState(t, h.bus, inPhase(models.PhaseInput))
	assert.True(t, state.Offline)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "status"}))

	state = waitForState(t, h.bus, inPhase(models.PhasePreview))
	assert.Equal(t, "git status", state.Preview.Command)
}

func TestDirectGitCommandSkipsTranslator(t *testing.T) {
	translator := &stubTranslator{vc: &security.ValidatedCommand{Command: "git log"}}
	h := startService(t, translator, true)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "git status"}))

	state := waitForState(t, h.bus, inPhase(models.PhasePreview))
	assert.Equal(t, "git status", state.Preview.Command)
	assert.Equal(t, 0, translator.callCount())
}

func TestExecuteSafeCommandWritesAuditOnce(t *testing.T) {
	h := startService(t, nil, false)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "git status"}))
	waitForState(t, h.bus, inPhase(models.PhasePreview))

	require.NoError(t, h.bus.SendToCore(eventbus.ExecuteCommandEvent{Command: "git status"}))

	state := waitForState(t, h.bus, inPhase(models.PhaseShowingOutput))
	assert.Equal(t, 0, state.Outcome.ExitCode)
	assert.False(t, state.Outcome.Failed)
	assert.Contains(t, state.Outcome.Stdout, "branch")
	assert.Equal(t, 1, h.auditor.count())
}

func TestExecutionTriggersSnapshotRefresh(t *testing.T) {
	h := startService(t, nil, false)

	first := waitForState(t, h.bus, func(s models.AppState) bool { return s.Repo.Generation > 0 })

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "git status"}))
	waitForState(t, h.bus, inPhase(models.PhasePreview))
	require.NoError(t, h.bus.SendToCore(eventbus.ExecuteCommandEvent{Command: "git status"}))
	waitForState(t, h.bus, inPhase(models.PhaseShowingOutput))

	// The pending refresh fires on the next idle tick.
	require.NoError(t, h.bus.SendToCore(eventbus.IdleTickEvent{}))
	state := waitForState(t, h.bus, func(s models.AppState) bool {
		return s.Repo.Generation > first.Repo.Generation
	})
	assert.Equal(t, models.PhaseShowingOutput, state.Phase)
}

func TestTypingActivityDefersIdleRefresh(t *testing.T) {
	h := startService(t, nil, false)

	first := waitForState(t, h.bus, func(s models.AppState) bool { return s.Repo.Generation > 0 })

	// Cycles that saw a keystroke restart the idle counter, so ten of
	// these rounds never reach the refresh threshold.
	for round := 0; round < 3; round++ {
		for i := 0; i < 9; i++ {
			require.NoError(t, h.bus.SendToCore(eventbus.IdleTickEvent{}))
		}
		require.NoError(t, h.bus.SendToCore(eventbus.IdleTickEvent{UserInput: true}))
	}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, first.Repo.Generation, h.service.state.View().Repo.Generation)

	// Ten uninterrupted idle cycles trigger the refresh.
	for i := 0; i < 10; i++ {
		require.NoError(t, h.bus.SendToCore(eventbus.IdleTickEvent{}))
	}
	state := waitForState(t, h.bus, func(s models.AppState) bool {
		return s.Repo.Generation > first.Repo.Generation
	})
	assert.Equal(t, models.PhaseInput, state.Phase)
}

func TestDangerousCommandRequiresLiteralConfirm(t *testing.T) {
	h := startService(t, nil, false)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "git reset --hard HEAD"}))
	state := waitForState(t, h.bus, inPhase(models.PhasePreview))
	assert.True(t, state.Preview.IsDangerous)

	require.NoError(t, h.bus.SendToCore(eventbus.ExecuteCommandEvent{Command: "git reset --hard HEAD"}))
	waitForState(t, h.bus, inPhase(models.PhaseConfirmDangerous))
	req := waitForConfirmRequest(t, h.bus)
	assert.Equal(t, "git reset --hard HEAD", req.Command)
	assert.NotEmpty(t, req.Warning)

	// Anything but the literal word is refused.
	require.NoError(t, h.bus.SendToCore(eventbus.ConfirmResponseEvent{ID: req.ID, Input: "yes"}))
	state = waitForState(t, h.bus, func(s models.AppState) bool { return s.Error != "" })
	assert.Equal(t, models.PhaseConfirmDangerous, state.Phase)
	assert.Equal(t, 0, h.auditor.count())

	require.NoError(t, h.bus.SendToCore(eventbus.ConfirmResponseEvent{ID: req.ID, Input: "CONFIRM"}))
	state = waitForState(t, h.bus, inPhase(models.PhaseShowingOutput))
	assert.Equal(t, 0, state.Outcome.ExitCode)
	assert.Equal(t, 1, h.auditor.count())
}

func TestConfirmCancelReturnsToInput(t *testing.T) {
	h := startService(t, nil, false)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "git reset --hard HEAD"}))
	waitForState(t, h.bus, inPhase(models.PhasePreview))
	require.NoError(t, h.bus.SendToCore(eventbus.ExecuteCommandEvent{Command: "git reset --hard HEAD"}))
	waitForState(t, h.bus, inPhase(models.PhaseConfirmDangerous))

	require.NoError(t, h.bus.SendToCore(eventbus.CancelEvent{}))
	waitForState(t, h.bus, inPhase(models.PhaseInput))
	assert.Equal(t, 0, h.auditor.count())
}

func TestEditedCommandRevalidated(t *testing.T) {
	h := startService(t, nil, false)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "git status"}))
	waitForState(t, h.bus, inPhase(models.PhasePreview))

	// The user edits the previewed command into an injection attempt.
	require.NoError(t, h.bus.SendToCore(eventbus.ExecuteCommandEvent{Command: "git status; rm -rf /"}))

	state := waitForState(t, h.bus, inPhase(models.PhaseShowingOutput))
	assert.True(t, state.Outcome.Failed)
	assert.Contains(t, state.Outcome.Message, "rejected")
	assert.Equal(t, 0, h.auditor.count())
}

func TestCancelDuringTranslationDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	translator := &stubTranslator{
		vc:      &security.ValidatedCommand{Command: "git status"},
		release: release,
	}
	h := startService(t, translator, true)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "show status"}))
	waitForState(t, h.bus, inPhase(models.PhaseTranslating))

	require.NoError(t, h.bus.SendToCore(eventbus.CancelEvent{}))
	waitForState(t, h.bus, inPhase(models.PhaseInput))

	// The in-flight call completes after cancel; its result must not
	// surface as a preview.
	close(release)
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, models.PhaseInput, h.service.state.Phase())
	assert.Nil(t, h.service.state.View().Preview)
}

func TestTranslationErrorShowsReason(t *testing.T) {
	translator := &stubTranslator{err: &llm.InvalidOutputError{Reason: "output contains explanation text"}}
	h := startService(t, translator, true)

	require.NoError(t, h.bus.SendToCore(eventbus.SubmitQueryEvent{Query: "do something"}))

	state := waitForState(t, h.bus, inPhase(models.PhaseShowingOutput))
	assert.True(t, state.Outcome.Failed)
	assert.Contains(t, state.Outcome.Message, "translating your query")

	require.NoError(t, h.bus.SendToCore(eventbus.DismissEvent{}))
	waitForState(t, h.bus, inPhase(models.PhaseInput))
}

func TestRetryConnectionTogglesMode(t *testing.T) {
	translator := &stubTranslator{vc: &security.ValidatedCommand{Command: "git status"}}
	repo := initServiceRepo(t)
	bus := eventbus.NewEventBus()
	pinger := &stubPinger{err: errors.New("unreachable")}

	svc := NewPipelineService(repo, config.Default(), translator, pinger, &countingAuditor{}, bus)
	svc.Start()
	t.Cleanup(svc.Stop)

	state := waitForState(t, bus, inPhase(models.PhaseInput))
	assert.True(t, state.Offline)

	pinger.setErr(nil)
	require.NoError(t, bus.SendToCore(eventbus.RetryConnectionEvent{}))
	state = waitForState(t, bus, func(s models.AppState) bool { return !s.Offline })
	assert.Equal(t, models.PhaseInput, state.Phase)
}
