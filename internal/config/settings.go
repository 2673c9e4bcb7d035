package config

import (
	"fmt"
	"strconv"
)

// Settings exposes the config as dotted keys for the `config show` and
// `config set` commands.

// Fields returns every settable key with its current value, in a stable
// order.
func (c *Config) Fields() []struct{ Key, Value string } {
	masked := ""
	if c.LLM.APIKey != "" {
		masked = "********"
	}
	return []struct{ Key, Value string }{
		{"llm.provider", c.LLM.Provider},
		{"llm.model", c.LLM.Model},
		{"llm.api_key_env", c.LLM.APIKeyEnv},
		{"llm.api_key", masked},
		{"llm.base_url", c.LLM.BaseURL},
		{"ui.refresh_interval_ms", strconv.Itoa(c.UI.RefreshIntervalMs)},
		{"ui.max_commits_display", strconv.Itoa(c.UI.MaxCommitsDisplay)},
		{"ui.max_stashes_display", strconv.Itoa(c.UI.MaxStashesDisplay)},
		{"ui.show_line_numbers", strconv.FormatBool(c.UI.ShowLineNumbers)},
		{"behavior.auto_refresh", strconv.FormatBool(c.Behavior.AutoRefresh)},
		{"behavior.confirm_dangerous_ops", strconv.FormatBool(c.Behavior.ConfirmDangerousOps)},
		{"behavior.log_commands", strconv.FormatBool(c.Behavior.LogCommands)},
		{"git.timeout_seconds", strconv.Itoa(c.Git.TimeoutSeconds)},
	}
}

// Set assigns a value to a dotted key. The dangerous-operation confirmation
// cannot be disabled.
func (c *Config) Set(key, value string) error {
	switch key {
	case "llm.provider":
		c.LLM.Provider = value
	case "llm.model":
		c.LLM.Model = value
	case "llm.api_key_env":
		c.LLM.APIKeyEnv = value
	case "llm.api_key":
		c.LLM.APIKey = value
	case "llm.base_url":
		c.LLM.BaseURL = value
	case "ui.refresh_interval_ms":
		return setInt(&c.UI.RefreshIntervalMs, key, value)
	case "ui.max_commits_display":
		return setInt(&c.UI.MaxCommitsDisplay, key, value)
	case "ui.max_stashes_display":
		return setInt(&c.UI.MaxStashesDisplay, key, value)
	case "ui.show_line_numbers":
		return setBool(&c.UI.ShowLineNumbers, key, value)
	case "behavior.auto_refresh":
		return setBool(&c.Behavior.AutoRefresh, key, value)
	case "behavior.confirm_dangerous_ops":
		return fmt.Errorf("%w: confirm_dangerous_ops cannot be changed", ErrInvalidValue)
	case "behavior.log_commands":
		return setBool(&c.Behavior.LogCommands, key, value)
	case "git.timeout_seconds":
		return setInt(&c.Git.TimeoutSeconds, key, value)
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidValue, key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s requires an integer, got %q", ErrInvalidValue, key, value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: %s requires true or false, got %q", ErrInvalidValue, key, value)
	}
	*dst = b
	return nil
}
