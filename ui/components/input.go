package components

import (
	"github.com/gitalky/gitalky/ui/styles"
)

// RenderTitle draws the top bar with the repository path and the offline
// badge.
func RenderTitle(repoPath string, offline bool, width int) string {
	title := "Gitalky - " + repoPath
	if offline {
		title += " " + styles.OfflineBadgeStyle().Render("[OFFLINE]")
	}
	return styles.TitleStyle(width).Render(title)
}

// RenderInput draws the query input box.
func RenderInput(input string, offline bool, width int) string {
	prompt := "> "
	if offline {
		prompt = "git> "
	}
	return styles.InputStyle(width).Render(prompt + input + "█")
}

// RenderLoading draws the wait indicator for translating and executing.
func RenderLoading(label string, dots int) string {
	text := label
	for i := 0; i < dots; i++ {
		text += "."
	}
	return styles.LoadingStyle().Render(text)
}
