package models

import "github.com/gitalky/gitalky/internal/git"

// FileGroup is one category of changed files with its overflow count.
type FileGroup struct {
	Label    string
	Paths    []string
	Overflow int // Entries beyond the display cap
}

// RepoView is the render-ready projection of a repository snapshot.
type RepoView struct {
	Branch     string
	Detached   bool
	Upstream   string
	Ahead      int
	Behind     int
	InProgress string // "", "merge", "rebase", "cherry-pick"
	Files      []FileGroup
	Commits    []string
	StashCount int
	Stashes    []string
	Generation uint64
}

// NewRepoView projects a snapshot for rendering. A nil snapshot yields a
// zero view.
func NewRepoView(snap *git.Snapshot) RepoView {
	if snap == nil {
		return RepoView{}
	}

	view := RepoView{
		Branch:     snap.Branch,
		Detached:   snap.Detached(),
		StashCount: snap.StashCount,
		Generation: snap.Generation,
	}
	if view.Detached {
		view.Branch = snap.DetachedShort
	}
	if snap.Upstream != nil {
		view.Upstream = snap.Upstream.Name
		view.Ahead = snap.Upstream.Ahead
		view.Behind = snap.Upstream.Behind
	}
	if snap.InProgress != git.OpNone {
		view.InProgress = snap.InProgress.String()
	}

	view.Files = []FileGroup{
		fileGroup("Staged", snap.Staged, snap.StagedTotal),
		fileGroup("Modified", snap.Unstaged, snap.UnstagedTotal),
		fileGroup("Untracked", snap.Untracked, snap.UntrackedTotal),
	}

	for _, c := range snap.RecentCommits {
		view.Commits = append(view.Commits, c.ShortHash+" "+c.Subject)
	}
	for _, s := range snap.Stashes {
		view.Stashes = append(view.Stashes, s.Ref+": "+s.Subject)
	}
	return view
}

func fileGroup(label string, entries []git.StatusEntry, total int) FileGroup {
	group := FileGroup{Label: label, Overflow: total - len(entries)}
	for _, e := range entries {
		group.Paths = append(group.Paths, e.Path)
	}
	return group
}
