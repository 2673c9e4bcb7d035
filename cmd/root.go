package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitalky/gitalky/internal/app"
	"github.com/gitalky/gitalky/internal/config"
	"github.com/gitalky/gitalky/internal/git"
)

var rootCmd = &cobra.Command{
	Use:   "gitalky",
	Short: "Talk to git in plain language",
	Long: `Gitalky is a terminal interface for git. Describe what you want in
plain language and review the single git command it proposes before
anything runs. Without an API key it acts as a plain git front-end.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := git.CheckVersion(); err != nil {
			return err
		}

		repo, err := git.Discover()
		if err != nil {
			return fmt.Errorf("not inside a git repository: %w", err)
		}

		cfg, err := config.LoadOrInit()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		application, err := app.NewApplication(cfg, repo)
		if err != nil {
			return err
		}
		defer application.Stop()

		return application.Start()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}
