package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitalky/gitalky/internal/git"
)

func TestNewRepoViewNil(t *testing.T) {
	view := NewRepoView(nil)

	assert.Equal(t, RepoView{}, view)
}

func TestNewRepoViewBranchAndUpstream(t *testing.T) {
	snap := &git.Snapshot{
		Branch: "main",
		Upstream: &git.Upstream{
			Name:   "origin/main",
			Ahead:  2,
			Behind: 1,
		},
		Generation: 7,
	}

	view := NewRepoView(snap)

	assert.Equal(t, "main", view.Branch)
	assert.False(t, view.Detached)
	assert.Equal(t, "origin/main", view.Upstream)
	assert.Equal(t, 2, view.Ahead)
	assert.Equal(t, 1, view.Behind)
	assert.Equal(t, uint64(7), view.Generation)
}

func TestNewRepoViewDetached(t *testing.T) {
	snap := &git.Snapshot{DetachedShort: "abc1234"}

	view := NewRepoView(snap)

	assert.True(t, view.Detached)
	assert.Equal(t, "abc1234", view.Branch)
}

func TestNewRepoViewFileGroupsAndOverflow(t *testing.T) {
	snap := &git.Snapshot{
		Branch:         "main",
		Staged:         []git.StatusEntry{{Path: "a.go", Staged: true}},
		StagedTotal:    1,
		Unstaged:       []git.StatusEntry{{Path: "b.go", Unstaged: true}, {Path: "c.go", Unstaged: true}},
		UnstagedTotal:  5,
		Untracked:      []git.StatusEntry{{Path: "new.txt"}},
		UntrackedTotal: 1,
	}

	view := NewRepoView(snap)

	assert.Len(t, view.Files, 3)
	assert.Equal(t, "Staged", view.Files[0].Label)
	assert.Equal(t, []string{"a.go"}, view.Files[0].Paths)
	assert.Equal(t, 0, view.Files[0].Overflow)

	assert.Equal(t, "Modified", view.Files[1].Label)
	assert.Equal(t, 3, view.Files[1].Overflow)

	assert.Equal(t, "Untracked", view.Files[2].Label)
	assert.Equal(t, []string{"new.txt"}, view.Files[2].Paths)
}

func TestNewRepoViewCommitsStashesInProgress(t *testing.T) {
	snap := &git.Snapshot{
		Branch:        "main",
		RecentCommits: []git.CommitEntry{{ShortHash: "abc1234", Subject: "fix parser"}},
		StashCount:    2,
		Stashes: []git.StashEntry{
			{Ref: "stash@{0}", Subject: "WIP on main"},
			{Ref: "stash@{1}", Subject: "experiment"},
		},
		InProgress: git.OpRebase,
	}

	view := NewRepoView(snap)

	assert.Equal(t, []string{"abc1234 fix parser"}, view.Commits)
	assert.Equal(t, 2, view.StashCount)
	assert.Equal(t, "stash@{0}: WIP on main", view.Stashes[0])
	assert.Equal(t, "rebase", view.InProgress)
}
