package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/gitalky/gitalky/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrInit()
		if err != nil {
			return err
		}

		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n\n", path)

		for _, field := range cfg.Fields() {
			fmt.Printf("  %-30s %s\n", field.Key, field.Value)
		}
		return nil
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting by its dotted key, for example:

  gitalky config set llm.model gpt-4o
  gitalky config set ui.max_commits_display 20`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrInit()
		if err != nil {
			return err
		}

		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the model connection interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrInit()
		if err != nil {
			return err
		}

		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: cfg.LLM.Model,
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return err
		}
		cfg.LLM.Model = model

		keyEnvPrompt := promptui.Prompt{
			Label:   "Environment variable holding the API key",
			Default: cfg.LLM.APIKeyEnv,
		}
		keyEnv, err := keyEnvPrompt.Run()
		if err != nil {
			return err
		}
		cfg.LLM.APIKeyEnv = keyEnv

		// Inline keys end up on disk; prefer the environment variable.
		keyPrompt := promptui.Prompt{
			Label: "API key (leave empty to use the environment variable)",
			Mask:  '*',
		}
		key, err := keyPrompt.Run()
		if err != nil {
			return err
		}
		if key != "" {
			cfg.LLM.APIKey = key
		}

		baseURLPrompt := promptui.Prompt{
			Label:   "Base URL (empty for the default endpoint)",
			Default: cfg.LLM.BaseURL,
		}
		baseURL, err := baseURLPrompt.Run()
		if err != nil {
			return err
		}
		cfg.LLM.BaseURL = baseURL

		if err := cfg.Save(); err != nil {
			return err
		}

		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)
	configCmd.AddCommand(initConfigCmd)
}
