package components

import (
	"fmt"
	"strings"

	"github.com/gitalky/gitalky/internal/models"
	"github.com/gitalky/gitalky/ui/styles"
)

// RenderRepoPanel draws the repository snapshot: branch line, in-progress
// banner, file sections with overflow counts, recent commits, and stashes.
func RenderRepoPanel(repo models.RepoView) string {
	var b strings.Builder

	branch := repo.Branch
	if branch == "" {
		branch = "(no commits yet)"
	}
	if repo.Detached {
		branch = "detached @ " + branch
	}
	b.WriteString(styles.BranchStyle().Render("⎇ " + branch))

	if repo.Upstream != "" {
		tracking := fmt.Sprintf("  %s ↑%d ↓%d", repo.Upstream, repo.Ahead, repo.Behind)
		b.WriteString(styles.UpstreamStyle().Render(tracking))
	}
	b.WriteString("\n")

	if repo.InProgress != "" {
		banner := strings.ToUpper(repo.InProgress) + " IN PROGRESS"
		b.WriteString(styles.InProgressStyle().Render(banner) + "\n")
	}

	for _, group := range repo.Files {
		if len(group.Paths) == 0 {
			continue
		}
		b.WriteString(styles.SectionStyle().Render(fmt.Sprintf("%s (%d)", group.Label, len(group.Paths)+group.Overflow)) + "\n")
		for _, path := range group.Paths {
			b.WriteString(styles.FilePathStyle().Render(path) + "\n")
		}
		if group.Overflow > 0 {
			b.WriteString(styles.OverflowStyle().Render(fmt.Sprintf("... and %d more", group.Overflow)) + "\n")
		}
	}

	if len(repo.Commits) > 0 {
		b.WriteString(styles.SectionStyle().Render("Recent commits") + "\n")
		for _, commit := range repo.Commits {
			b.WriteString(styles.FilePathStyle().Render(commit) + "\n")
		}
	}

	if repo.StashCount > 0 {
		b.WriteString(styles.SectionStyle().Render(fmt.Sprintf("Stashes (%d)", repo.StashCount)) + "\n")
		for _, stash := range repo.Stashes {
			b.WriteString(styles.FilePathStyle().Render(stash) + "\n")
		}
	}

	return styles.PanelStyle().Render(strings.TrimRight(b.String(), "\n"))
}
