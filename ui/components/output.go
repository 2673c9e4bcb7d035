package components

import (
	"fmt"
	"strings"

	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/ui/styles"
)

// RenderOutput draws the result of a finished or failed execution.
func RenderOutput(outcome *models.OutcomeView) string {
	if outcome == nil {
		return ""
	}

	var b strings.Builder
	if outcome.Command != "" {
		b.WriteString("$ " + styles.CommandStyle().Render(outcome.Command) + "\n")
	}

	if outcome.Failed {
		b.WriteString(styles.StderrStyle().Render(outcome.Message))
		if outcome.Suggestion != "" {
			b.WriteString("\n" + styles.SuggestionStyle().Render("💡 "+outcome.Suggestion))
		}
		return styles.OutputStyle().Render(b.String())
	}

	if outcome.Stdout != "" {
		b.WriteString(strings.TrimRight(outcome.Stdout, "\n") + "\n")
	}
	if outcome.Stderr != "" {
		b.WriteString(styles.StderrStyle().Render(strings.TrimRight(outcome.Stderr, "\n")) + "\n")
	}

	if outcome.ExitCode != 0 {
		b.WriteString(styles.StderrStyle().Render(fmt.Sprintf("exit %d", outcome.ExitCode)))
		if outcome.Message != "" {
			b.WriteString("\n" + outcome.Message)
		}
		if outcome.Suggestion != "" {
			b.WriteString("\n" + styles.SuggestionStyle().Render("💡 "+outcome.Suggestion))
		}
	}

	return styles.OutputStyle().Render(strings.TrimRight(b.String(), "\n"))
}
