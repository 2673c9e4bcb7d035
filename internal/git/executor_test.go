package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a git repository in a temp dir with identity config.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	for _, args := range [][]string{
		{"init"},
		{"config", "user.name", "Test User"},
		{"config", "user.email", "test@example.com"},
		{"config", "commit.gpgsign", "false"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	return dir
}

func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	for _, args := range [][]string{
		{"add", name},
		{"commit", "-m", message},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
}

func TestExecuteStatus(t *testing.T) {
	dir := initTestRepo(t)
	e := NewExecutor(dir)

	out, err := e.Execute("status --porcelain")
	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, StatusSuccess, out.Status)
}

func TestExecuteDropsGitPrefix(t *testing.T) {
	dir := initTestRepo(t)
	e := NewExecutor(dir)

	out, err := e.Execute("git status --porcelain")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
}

func TestExecuteNonZeroExitIsNotAnError(t *testing.T) {
	dir := initTestRepo(t)
	e := NewExecutor(dir)

	// log fails in an empty repository; that is a failure outcome, not an
	// executor error.
	out, err := e.Execute("log --oneline")
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, out.Status)
	assert.NotEqual(t, 0, out.ExitCode)
	assert.NotEmpty(t, out.Stderr)
}

func TestExecuteRejectsMetacharacters(t *testing.T) {
	e := NewExecutor(t.TempDir())

	for _, cmd := range []string{
		"status; rm -rf /",
		"log | sh",
		"status & whoami",
		"status `whoami`",
		"status $(whoami)",
		"status > /tmp/out",
		"status < /tmp/in",
	} {
		_, err := e.Execute(cmd)
		require.Error(t, err, "command: %s", cmd)

		var execErr *ExecutorError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, ExecShellMetacharacter, execErr.Kind)
	}
}

func TestExecuteRejectsUnmatchedQuotes(t *testing.T) {
	e := NewExecutor(t.TempDir())

	_, err := e.Execute(`commit -m "unterminated`)
	require.Error(t, err)

	var execErr *ExecutorError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ExecParseError, execErr.Kind)
}

func TestExecuteEmptyCommand(t *testing.T) {
	e := NewExecutor(t.TempDir())

	for _, cmd := range []string{"", "   ", "git"} {
		_, err := e.Execute(cmd)
		require.Error(t, err, "command: %q", cmd)

		var execErr *ExecutorError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, ExecParseError, execErr.Kind)
	}
}

func TestExecuteTimeout(t *testing.T) {
	dir := initTestRepo(t)
	commitFile(t, dir, "a.txt", "a", "first")
	e := NewExecutor(dir)

	// A nanosecond deadline expires before git can do anything.
	_, err := e.ExecuteWithTimeout("log", time.Nanosecond)
	require.Error(t, err)

	var execErr *ExecutorError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ExecTimeout, execErr.Kind)
}

func TestEnvironmentScrubbing(t *testing.T) {
	t.Setenv("GIT_SSH_COMMAND", "/tmp/evil")
	t.Setenv("GIT_PAGER", "/tmp/evil-pager")

	env := scrubbedEnv()
	joined := strings.Join(env, "\n")
	assert.NotContains(t, joined, "GIT_SSH_COMMAND")
	assert.NotContains(t, joined, "GIT_PAGER")

	allowed := map[string]bool{}
	for _, v := range safeEnvVars {
		allowed[v] = true
	}
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		assert.True(t, allowed[key], "unexpected child env var %q", key)
	}
}

func TestEnvironmentScrubbingEndToEnd(t *testing.T) {
	dir := initTestRepo(t)
	e := NewExecutor(dir)

	// GIT_DIR pointing at a nonexistent directory would break every git
	// command if it leaked into the child.
	t.Setenv("GIT_DIR", filepath.Join(dir, "does-not-exist"))

	out, err := e.Execute("status --porcelain")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"simple", "status --porcelain", []string{"status", "--porcelain"}, false},
		{"double quotes", `commit -m "two words"`, []string{"commit", "-m", "two words"}, false},
		{"single quotes", "commit -m 'two words'", []string{"commit", "-m", "two words"}, false},
		{"quote inside word", `commit -m"glued message"`, []string{"commit", "-mglued message"}, false},
		{"nested other quote", `commit -m "it's fine"`, []string{"commit", "-m", "it's fine"}, false},
		{"empty quoted arg", `commit -m ""`, []string{"commit", "-m", ""}, false},
		{"tabs and spaces", "add \t file.txt", []string{"add", "file.txt"}, false},
		{"empty", "", nil, false},
		{"unmatched double", `commit -m "oops`, nil, true},
		{"unmatched single", "commit -m 'oops", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateOutput(t *testing.T) {
	small := "hello\nworld"
	assert.Equal(t, small, truncateOutput(small))

	manyLines := strings.Repeat("line\n", maxOutputLines+100)
	truncated := truncateOutput(manyLines)
	assert.Contains(t, truncated, "[output truncated]")
	assert.LessOrEqual(t, strings.Count(truncated, "\n"), maxOutputLines+2)
}
