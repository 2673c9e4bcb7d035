package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSimpleCommand(t *testing.T) {
	v := NewValidator()

	vc, err := v.Validate("git status")
	require.NoError(t, err)
	assert.Equal(t, "git status", vc.Command)
	assert.False(t, vc.IsDangerous)
	assert.Equal(t, DangerNone, vc.Danger)
}

func TestValidateWithoutGitPrefix(t *testing.T) {
	v := NewValidator()

	vc, err := v.Validate("status")
	require.NoError(t, err)
	assert.Equal(t, "status", vc.Command)
}

func TestValidateAllAllowedSubcommands(t *testing.T) {
	v := NewValidator()

	commands := []string{
		"git status",
		"git log --oneline",
		"git show HEAD",
		"git diff",
		"git branch",
		"git tag v1.0",
		"git remote -v",
		"git reflog",
		"git blame README.md",
		"git describe",
		"git add .",
		"git commit -m 'test'",
		"git checkout main",
		"git switch feature",
		"git restore file.txt",
		"git reset HEAD",
		"git revert abc123",
		"git merge feature",
		"git rebase main",
		"git cherry-pick abc123",
		"git stash",
		"git clean -n",
		"git push origin main",
		"git pull origin main",
		"git fetch origin",
		"git clone repo.git",
		"git config user.name",
	}

	for _, cmd := range commands {
		_, err := v.Validate(cmd)
		assert.NoError(t, err, "command should be valid: %s", cmd)
	}
}

func TestValidateRejections(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		command string
		kind    ErrorKind
	}{
		{"empty", "", InvalidFormat},
		{"whitespace only", "   ", InvalidFormat},
		{"bare flags", "git --oneline", InvalidFormat},
		{"disallowed rm", "git rm -rf /", DisallowedSubcommand},
		{"disallowed gc", "git gc", DisallowedSubcommand},
		{"not git at all", "curl evil.sh", DisallowedSubcommand},
		{"semicolon injection", "git status; rm -rf /", ShellMetacharacter},
		{"pipe injection", "git log | sh", ShellMetacharacter},
		{"or injection", "git status || rm -rf /", ShellMetacharacter},
		{"redirect out", "git status > /etc/passwd", ShellMetacharacter},
		{"redirect in", "git apply < patch", ShellMetacharacter},
		{"command substitution", "git status $(whoami)", ShellMetacharacter},
		{"backtick substitution", "git status `whoami`", ShellMetacharacter},
		{"background operator", "git status & whoami", ShellMetacharacter},
		{"unbalanced single quote", "git commit -m 'oops", ShellMetacharacter},
		{"unbalanced double quote", `git commit -m "oops`, ShellMetacharacter},
		{"compound with non-git", "git status && rm -rf /", DisallowedSubcommand},
		{"exec flag", "git rebase --exec 'sh evil' main", DangerousFlag},
		{"upload-pack flag", "git fetch --upload-pack=/tmp/evil origin", DangerousFlag},
		{"config override", "git -c core.pager='sh -c whoami' log", DangerousFlag},
		{"ssh command override", "git config core.sshCommand /tmp/evil", DangerousFlag},
		{"chdir with space", "git -C /etc status", DangerousFlag},
		{"chdir without space", "git -C/etc status", DangerousFlag},
		{"chdir at start", "-C /tmp status", DangerousFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.command)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.kind, verr.Kind, "command: %s", tt.command)
		})
	}
}

func TestValidateCompoundCommand(t *testing.T) {
	v := NewValidator()

	vc, err := v.Validate(`git add -A && git commit -m "checkpoint"`)
	require.NoError(t, err)
	assert.False(t, vc.IsDangerous)

	// Second part without git prefix is still a git command.
	_, err = v.Validate("git add -A && commit -m 'x'")
	assert.NoError(t, err)
}

func TestDangerTagging(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		command string
		danger  DangerKind
	}{
		{"git push --force origin main", ForcePush},
		{"git push -f origin main", ForcePush},
		{"git reset --hard HEAD~1", HardReset},
		{"git clean -fd", Clean},
		{"git clean -fdx", Clean},
		{"git clean -f -d", Clean},
		{"git filter-branch --tree-filter 'true' HEAD", FilterBranch},
		{"git checkout --force main", ForceCheckout},
		{"git checkout -f main", ForceCheckout},
		{"git branch -D feature", DeleteBranch},
		{"git branch -d feature", DeleteBranch},
		{"git rebase main", Rebase},
		{"git rebase -i HEAD~3", Rebase},
		{"git pull --rebase", Rebase},
		{"git pull --rebase origin main", Rebase},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			vc, err := v.Validate(tt.command)
			require.NoError(t, err)
			assert.True(t, vc.IsDangerous)
			assert.Equal(t, tt.danger, vc.Danger)
		})
	}
}

func TestDangerTaggingNegatives(t *testing.T) {
	v := NewValidator()

	tests := []string{
		"git push origin main",
		"git push --force-with-lease origin main",
		"git reset HEAD~1",
		"git reset --soft HEAD~1",
		"git clean -n",
		"git checkout main",
		"git branch new-feature",
	}

	for _, cmd := range tests {
		t.Run(cmd, func(t *testing.T) {
			vc, err := v.Validate(cmd)
			require.NoError(t, err)
			assert.False(t, vc.IsDangerous, "should not be dangerous: %s", cmd)
		})
	}
}

func TestAllowlistSharedWithTranslator(t *testing.T) {
	// Both readers of the allowlist must accept exactly the same set.
	for _, sub := range AllowedGitSubcommands {
		assert.True(t, IsAllowedSubcommand(sub))
	}
	assert.False(t, IsAllowedSubcommand("rm"))
	assert.False(t, IsAllowedSubcommand("init"))
	assert.False(t, IsAllowedSubcommand(""))
}

func TestDangerKindDescriptions(t *testing.T) {
	kinds := []DangerKind{ForcePush, HardReset, Clean, FilterBranch, ForceCheckout, DeleteBranch, Rebase}
	for _, k := range kinds {
		assert.NotEmpty(t, k.Description())
		assert.NotEqual(t, "none", k.String())
	}
	assert.Empty(t, DangerNone.Description())
}
