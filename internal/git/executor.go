package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 30 * time.Second

const (
	maxOutputBytes = 10 * 1024 * 1024
	maxOutputLines = 10000
)

// Variables re-exported into the child environment. Everything else is
// dropped, which neutralizes GIT_SSH_COMMAND, GIT_EDITOR, GIT_PAGER,
// GIT_EXEC_PATH, hook overrides and similar vectors.
var safeEnvVars = []string{
	"PATH", "HOME", "USER", "LOGNAME", "LANG", "LC_ALL", "TZ", "TERM", "TMPDIR",
}

// OutcomeStatus describes how an execution completed. Timeouts never reach
// an outcome; they surface as an ExecutorError instead.
type OutcomeStatus int

const (
	StatusSuccess OutcomeStatus = iota
	StatusFailure
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// CommandOutcome is the structured result of running git. A non-zero exit
// code is a successful execution from the executor's perspective; only
// spawn failures and timeouts are errors.
type CommandOutcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Status   OutcomeStatus
}

// ExecutorErrorKind classifies executor failures.
type ExecutorErrorKind int

const (
	ExecShellMetacharacter ExecutorErrorKind = iota
	ExecParseError
	ExecSpawn
	ExecTimeout
)

func (k ExecutorErrorKind) String() string {
	switch k {
	case ExecShellMetacharacter:
		return "shell metacharacter"
	case ExecParseError:
		return "parse error"
	case ExecSpawn:
		return "spawn failed"
	case ExecTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ExecutorError is returned when git could not be (safely) run at all.
type ExecutorError struct {
	Kind   ExecutorErrorKind
	Detail string
	Err    error
}

func (e *ExecutorError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutorError) Unwrap() error { return e.Err }

// Executor runs git as a child process inside a repository, with a
// scrubbed environment and without ever invoking a shell.
type Executor struct {
	repoPath string
	timeout  time.Duration
}

// NewExecutor creates an Executor rooted at repoPath.
func NewExecutor(repoPath string) *Executor {
	return &Executor{repoPath: repoPath, timeout: DefaultTimeout}
}

// SetTimeout overrides the default per-command timeout.
func (e *Executor) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// RepoPath returns the repository root this executor is bound to.
func (e *Executor) RepoPath() string { return e.repoPath }

// Execute runs a git command with the configured timeout. The leading
// "git" token is optional: both "git status" and "status" are accepted.
func (e *Executor) Execute(command string) (*CommandOutcome, error) {
	return e.ExecuteWithTimeout(command, e.timeout)
}

// ExecuteWithTimeout runs a git command, killing the child after timeout.
func (e *Executor) ExecuteWithTimeout(command string, timeout time.Duration) (*CommandOutcome, error) {
	if meta := findMetacharacter(command); meta != "" {
		return nil, &ExecutorError{Kind: ExecShellMetacharacter, Detail: fmt.Sprintf("%q", meta)}
	}

	argv, err := Tokenize(command)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, &ExecutorError{Kind: ExecParseError, Detail: "empty command"}
	}
	if argv[0] == "git" {
		argv = argv[1:]
		if len(argv) == 0 {
			return nil, &ExecutorError{Kind: ExecParseError, Detail: "missing subcommand"}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", argv...)
	cmd.Dir = e.repoPath
	cmd.Env = scrubbedEnv()
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, &ExecutorError{
			Kind:   ExecTimeout,
			Detail: fmt.Sprintf("git did not finish within %s", timeout),
		}
	}

	outcome := &CommandOutcome{
		Stdout: truncateOutput(stdout.String()),
		Stderr: truncateOutput(stderr.String()),
		Status: StatusSuccess,
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			outcome.Status = StatusFailure
			return outcome, nil
		}
		return nil, &ExecutorError{Kind: ExecSpawn, Detail: "failed to start git", Err: runErr}
	}

	return outcome, nil
}

func findMetacharacter(command string) string {
	for _, meta := range []string{";", "|", "&", "`", "$", ">", "<"} {
		if strings.Contains(command, meta) {
			return meta
		}
	}
	return ""
}

// scrubbedEnv builds the child environment from scratch, copying only the
// allowlisted variables that are set in the parent.
func scrubbedEnv() []string {
	env := make([]string, 0, len(safeEnvVars))
	for _, key := range safeEnvVars {
		if val, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+val)
		}
	}
	return env
}

// truncateOutput caps captured output at maxOutputBytes or maxOutputLines,
// whichever is hit first, appending an explicit marker.
func truncateOutput(s string) string {
	truncated := false
	if len(s) > maxOutputBytes {
		s = s[:maxOutputBytes]
		truncated = true
	}
	if n := strings.Count(s, "\n"); n >= maxOutputLines {
		lines := strings.SplitN(s, "\n", maxOutputLines+1)
		s = strings.Join(lines[:maxOutputLines], "\n")
		truncated = true
	}
	if truncated {
		s += "\n... [output truncated]"
	}
	return s
}

// Tokenize splits a command string into argv, honoring matched single and
// double quotes. Escape sequences are intentionally not interpreted: git
// rarely needs escaped quotes, and a richer parser widens the attack
// surface. Unmatched quotes are an error.
func Tokenize(command string) ([]string, error) {
	var (
		argv    []string
		current strings.Builder
		inWord  bool
		quote   rune
	)

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				argv = append(argv, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, &ExecutorError{Kind: ExecParseError, Detail: "unmatched quote"}
	}
	if inWord {
		argv = append(argv, current.String())
	}
	return argv, nil
}
