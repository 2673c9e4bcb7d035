package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidValue marks configuration values that fail validation.
var ErrInvalidValue = errors.New("invalid config value")

type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

type UIConfig struct {
	RefreshIntervalMs int  `yaml:"refresh_interval_ms"`
	MaxCommitsDisplay int  `yaml:"max_commits_display"`
	MaxStashesDisplay int  `yaml:"max_stashes_display"`
	ShowLineNumbers   bool `yaml:"show_line_numbers"`
}

type BehaviorConfig struct {
	AutoRefresh         bool `yaml:"auto_refresh"`
	ConfirmDangerousOps bool `yaml:"confirm_dangerous_ops"`
	LogCommands         bool `yaml:"log_commands"`
}

type GitConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	UI       UIConfig       `yaml:"ui"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Git      GitConfig      `yaml:"git"`
}

// Dir returns the config directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitalky"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gitalky"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		UI: UIConfig{
			RefreshIntervalMs: 100,
			MaxCommitsDisplay: 5,
			MaxStashesDisplay: 5,
		},
		Behavior: BehaviorConfig{
			AutoRefresh:         true,
			ConfirmDangerousOps: true,
			LogCommands:         true,
		},
		Git: GitConfig{
			TimeoutSeconds: 30,
		},
	}
}

// Load reads and validates the config file. A missing file is reported via
// os.ErrNotExist so callers can decide to initialize a default.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return loadFile(path)
}

// LoadOrInit reads the config file, writing and returning the default when
// no file exists yet.
func LoadOrInit() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg, err := loadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err := saveFile(cfg, path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save validates and writes the config, creating the directory as needed.
// The file is written 0600 since it may hold an API key.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return saveFile(c, path)
}

func saveFile(c *Config, path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.LLM.Provider != "openai" {
		return fmt.Errorf("%w: unsupported provider %q, only \"openai\" is supported", ErrInvalidValue, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidValue)
	}
	if c.UI.RefreshIntervalMs <= 0 {
		return fmt.Errorf("%w: refresh_interval_ms must be greater than 0", ErrInvalidValue)
	}
	if c.UI.MaxCommitsDisplay <= 0 {
		return fmt.Errorf("%w: max_commits_display must be greater than 0", ErrInvalidValue)
	}
	if c.Git.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout_seconds must be greater than 0", ErrInvalidValue)
	}
	return nil
}

// APIKey resolves the key: the environment variable named by api_key_env
// wins, the inline api_key field is the fallback. Empty means no key.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv != "" {
		if key := os.Getenv(c.LLM.APIKeyEnv); key != "" {
			return key
		}
	}
	return c.LLM.APIKey
}

// HasAPIKey reports whether a key is available from either source.
func (c *Config) HasAPIKey() bool {
	return c.APIKey() != ""
}
