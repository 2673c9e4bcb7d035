package apperrors

import "strings"

// Friendly is an error rendered for display: a plain-language message, an
// optional next-step suggestion, and the raw error text for the detail
// view.
type Friendly struct {
	Message    string
	Suggestion string
	Raw        string
}

type gitPattern struct {
	needles    []string
	message    string
	suggestion string
}

// Ordered: the first pattern whose needles all appear wins. More specific
// phrasings sit above generic ones.
var gitPatterns = []gitPattern{
	{
		needles:    []string{"untracked working tree files would be overwritten"},
		message:    "Untracked files would be overwritten by this operation.",
		suggestion: "Move or remove the conflicting files, or commit them first.",
	},
	{
		needles:    []string{"no upstream"},
		message:    "No remote branch is configured for tracking.",
		suggestion: "Try: git push -u origin <branch-name>",
	},
	{
		needles:    []string{"does not have an upstream"},
		message:    "No remote branch is configured for tracking.",
		suggestion: "Try: git push -u origin <branch-name>",
	},
	{
		needles:    []string{"conflict"},
		message:    "Merge has conflicts that need to be resolved.",
		suggestion: "Fix conflicts in the listed files, then git add and git commit.",
	},
	{
		needles:    []string{"detached head"},
		message:    "Not currently on any branch (detached HEAD state).",
		suggestion: "Create a new branch: git checkout -b <branch-name>",
	},
	{
		needles: []string{"nothing to commit"},
		message: "No changes to commit. The working directory is clean.",
	},
	{
		needles: []string{"working tree clean"},
		message: "No changes to commit. The working directory is clean.",
	},
	{
		needles:    []string{"pathspec", "did not match"},
		message:    "File path not found in the repository.",
		suggestion: "Check the file path and try again. Use 'git status' to see available files.",
	},
	{
		needles:    []string{"already exists", "branch"},
		message:    "A branch with that name already exists.",
		suggestion: "Use a different name or delete the existing branch first.",
	},
	{
		needles:    []string{"already exists", "ref"},
		message:    "A branch with that name already exists.",
		suggestion: "Use a different name or delete the existing branch first.",
	},
	{
		needles:    []string{"not a git repository"},
		message:    "Current directory is not a git repository.",
		suggestion: "Initialize with: git init",
	},
	{
		needles:    []string{"remote", "not found"},
		message:    "Remote repository not found.",
		suggestion: "Check the remote URL with: git remote -v",
	},
	{
		needles:    []string{"remote", "does not appear"},
		message:    "Remote repository not found.",
		suggestion: "Check the remote URL with: git remote -v",
	},
	{
		needles:    []string{"authentication failed"},
		message:    "Authentication failed. Check your credentials.",
		suggestion: "Verify your SSH keys or personal access token.",
	},
	{
		needles:    []string{"permission denied"},
		message:    "Authentication failed. Check your credentials.",
		suggestion: "Verify your SSH keys or personal access token.",
	},
	{
		needles:    []string{"would be overwritten"},
		message:    "Operation would overwrite uncommitted changes.",
		suggestion: "Commit or stash your changes first: git stash",
	},
	{
		needles:    []string{"diverged"},
		message:    "Local and remote branches have diverged.",
		suggestion: "Pull changes first: git pull",
	},
	{
		needles:    []string{"rejected", "non-fast-forward"},
		message:    "Local and remote branches have diverged.",
		suggestion: "Pull changes first: git pull",
	},
	{
		needles:    []string{"rebase in progress"},
		message:    "A rebase operation is currently in progress.",
		suggestion: "Continue with: git rebase --continue, or abort: git rebase --abort",
	},
	{
		needles:    []string{"merge in progress"},
		message:    "A merge operation is currently in progress.",
		suggestion: "Complete the merge and commit, or abort: git merge --abort",
	},
	{
		needles:    []string{"no changes added to commit"},
		message:    "No files staged for commit.",
		suggestion: "Stage files with: git add <file>",
	},
}

// ExplainGitOutput maps raw git stderr text to a plain-language message.
// Unrecognized output passes through unchanged with no suggestion. The raw
// text is always preserved.
func ExplainGitOutput(output string) Friendly {
	lower := strings.ToLower(output)

	for _, p := range gitPatterns {
		matched := true
		for _, needle := range p.needles {
			if !strings.Contains(lower, needle) {
				matched = false
				break
			}
		}
		if matched {
			return Friendly{Message: p.message, Suggestion: p.suggestion, Raw: output}
		}
	}

	return Friendly{Message: output, Raw: output}
}

// Explain renders an application error for display, with a
// category-appropriate message and suggestion.
func Explain(err error) Friendly {
	if err == nil {
		return Friendly{}
	}

	category := CategoryGit
	if app, ok := err.(*AppError); ok {
		category = app.Category
	}

	switch category {
	case CategoryConfig:
		return Friendly{
			Message:    "Configuration error occurred.",
			Suggestion: "Check your config file at ~/.config/gitalky/config.yml",
			Raw:        err.Error(),
		}
	case CategoryLLM:
		return Friendly{
			Message:    "Error communicating with the language model.",
			Suggestion: "Check your API key and network connection",
			Raw:        err.Error(),
		}
	case CategoryTranslation:
		return Friendly{
			Message:    "Error translating your query.",
			Suggestion: "Try rephrasing your question or check your connection",
			Raw:        err.Error(),
		}
	case CategorySecurity:
		return Friendly{
			Message: "Command validation failed for security reasons.",
			Raw:     err.Error(),
		}
	case CategoryIO:
		return Friendly{
			Message:    "I/O error occurred.",
			Suggestion: "Check file permissions and disk space",
			Raw:        err.Error(),
		}
	default:
		return ExplainGitOutput(err.Error())
	}
}
