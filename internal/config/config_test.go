package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.True(t, cfg.Behavior.ConfirmDangerousOps)
	assert.Equal(t, 100, cfg.UI.RefreshIntervalMs)
	assert.Equal(t, 30, cfg.Git.TimeoutSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "anthropic" }},
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
		{"zero refresh interval", func(c *Config) { c.UI.RefreshIntervalMs = 0 }},
		{"zero commits display", func(c *Config) { c.UI.MaxCommitsDisplay = 0 }},
		{"zero timeout", func(c *Config) { c.Git.TimeoutSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidValue)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrInitCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := LoadOrInit()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)

	path := filepath.Join(dir, "gitalky", "config.yml")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Second load reads the file it just wrote.
	again, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.LLM.Model, again.LLM.Model)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.BaseURL = "https://llm.internal.example/v1"
	cfg.Git.TimeoutSeconds = 60
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", loaded.LLM.Model)
	assert.Equal(t, "https://llm.internal.example/v1", loaded.LLM.BaseURL)
	assert.Equal(t, 60, loaded.Git.TimeoutSeconds)
}

func TestSaveRejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Git.TimeoutSeconds = 0
	assert.ErrorIs(t, cfg.Save(), ErrInvalidValue)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gitalky"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gitalky", "config.yml"), []byte("llm: ["), 0o600))

	_, err := Load()
	assert.ErrorContains(t, err, "parse")
}

func TestAPIKeyEnvWins(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKeyEnv = "GITALKY_TEST_KEY"
	cfg.LLM.APIKey = "inline-key"

	t.Setenv("GITALKY_TEST_KEY", "env-key")
	assert.Equal(t, "env-key", cfg.APIKey())

	t.Setenv("GITALKY_TEST_KEY", "")
	assert.Equal(t, "inline-key", cfg.APIKey())
	assert.True(t, cfg.HasAPIKey())
}

func TestAPIKeyMissing(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKeyEnv = "GITALKY_UNSET_KEY"
	assert.False(t, cfg.HasAPIKey())
}

func TestSetKnownKeys(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("llm.model", "gpt-4o"))
	require.NoError(t, cfg.Set("git.timeout_seconds", "45"))
	require.NoError(t, cfg.Set("behavior.log_commands", "false"))

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 45, cfg.Git.TimeoutSeconds)
	assert.False(t, cfg.Behavior.LogCommands)
}

func TestSetRejectsBadInput(t *testing.T) {
	cfg := Default()

	assert.ErrorIs(t, cfg.Set("nope.nope", "x"), ErrInvalidValue)
	assert.ErrorIs(t, cfg.Set("git.timeout_seconds", "soon"), ErrInvalidValue)
	assert.ErrorIs(t, cfg.Set("behavior.auto_refresh", "maybe"), ErrInvalidValue)
}

func TestSetCannotDisableConfirmation(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Set("behavior.confirm_dangerous_ops", "false"), ErrInvalidValue)
	assert.True(t, cfg.Behavior.ConfirmDangerousOps)
}

func TestFieldsMasksAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-secret"

	for _, f := range cfg.Fields() {
		if f.Key == "llm.api_key" {
			assert.Equal(t, "********", f.Value)
			return
		}
	}
	t.Fatal("llm.api_key not listed")
}
