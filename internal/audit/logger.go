// Package audit appends durable records for executed commands and rejected
// model outputs. The log is append-only; past records are never read back.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// maxLogSize triggers rotation before a write pushes the file past 10 MiB.
const maxLogSize = 10 * 1024 * 1024

// Logger owns the audit log file. All writes are serialized and flushed.
type Logger struct {
	mu      sync.Mutex
	path    string
	user    string
	nowFunc func() time.Time
}

// New creates a Logger at the default location,
// $XDG_CONFIG_HOME/gitalky/history.log (falling back to ~/.config).
func New() (*Logger, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return NewWithPath(filepath.Join(dir, "gitalky", "history.log"))
}

// NewWithPath creates a Logger writing to the given file.
func NewWithPath(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &Logger{
		path:    path,
		user:    currentUser(),
		nowFunc: time.Now,
	}, nil
}

// Path returns the audit log location.
func (l *Logger) Path() string { return l.path }

// LogExec records a command execution and its exit code.
func (l *Logger) LogExec(repoPath, command string, exitCode int) error {
	line := fmt.Sprintf("[%s] [%s] [%s] command=%s exit=%d\n",
		l.timestamp(), l.user, repoPath, escape(command), exitCode)
	return l.write(line)
}

// LogValidationFailure records a rejected model output for forensics: the
// original query, the offending output, and why it was rejected.
func (l *Logger) LogValidationFailure(repoPath, query, llmOutput, reason string) error {
	line := fmt.Sprintf("[%s] [%s] [%s] [VALIDATION-REJECTED] query=\"%s\" llm_output=\"%s\" reason=\"%s\"\n",
		l.timestamp(), l.user, repoPath, escape(query), escape(llmOutput), escape(reason))
	return l.write(line)
}

func (l *Logger) write(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rotateIfNeeded()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return err
	}
	return f.Sync()
}

// rotateIfNeeded renames an oversized log with a timestamp suffix. Rotation
// failures are non-fatal; the write proceeds into the old file.
func (l *Logger) rotateIfNeeded() {
	info, err := os.Stat(l.path)
	if err != nil || info.Size() <= maxLogSize {
		return
	}

	rotated := l.path + "." + l.nowFunc().UTC().Format("20060102T150405")
	if err := os.Rename(l.path, rotated); err != nil {
		log.Warn().Err(err).Str("path", l.path).Msg("audit log rotation failed")
	}
}

func (l *Logger) timestamp() string {
	return l.nowFunc().UTC().Format(time.RFC3339)
}

// escape keeps each record on a single line with no unescaped quotes.
func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return r.Replace(s)
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("LOGNAME"); u != "" {
		return u
	}
	return "unknown"
}
