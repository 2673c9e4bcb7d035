package git

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
)

// ErrNotARepository is returned when discovery finds no .git ancestor.
var ErrNotARepository = errors.New("not a git repository")

// InProgressOp marks a multi-step git operation that is currently underway.
type InProgressOp int

const (
	OpNone InProgressOp = iota
	OpMerge
	OpRebase
	OpCherryPick
)

func (op InProgressOp) String() string {
	switch op {
	case OpMerge:
		return "merge"
	case OpRebase:
		return "rebase"
	case OpCherryPick:
		return "cherry-pick"
	default:
		return "none"
	}
}

// Upstream describes the tracking relationship of the current branch.
type Upstream struct {
	Name   string
	Ahead  int
	Behind int
}

// Snapshot is a bounded, read-only view of repository state. Snapshots are
// never mutated after construction; refresh replaces the whole value.
type Snapshot struct {
	Branch        string // empty when detached
	DetachedShort string // short commit id, set only when detached
	Upstream      *Upstream
	Untracked     []StatusEntry
	Unstaged      []StatusEntry
	Staged        []StatusEntry
	// Total counts before the 50-entry cap; overflow is Total - len(list).
	UntrackedTotal int
	UnstagedTotal  int
	StagedTotal    int
	RecentCommits  []CommitEntry
	StashCount     int
	Stashes        []StashEntry
	InProgress     InProgressOp
	Generation     uint64
}

const (
	snapshotFileCap   = 50
	snapshotCommitCap = 5
	snapshotStashCap  = 5
)

// Detached reports whether HEAD points at a commit rather than a branch.
func (s *Snapshot) Detached() bool { return s.Branch == "" }

// Clean reports whether the working tree has no changes at all.
func (s *Snapshot) Clean() bool {
	return len(s.Untracked) == 0 && len(s.Unstaged) == 0 && len(s.Staged) == 0
}

// Repository is a discovered git working directory, identified by the
// absolute path of its root. Created once at startup, immutable after.
type Repository struct {
	path       string
	executor   *Executor
	generation atomic.Uint64
}

// Discover walks up from the current working directory to the nearest
// ancestor containing .git.
func Discover() (*Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return DiscoverFrom(cwd)
}

// DiscoverFrom walks up from start to the nearest ancestor containing .git.
func DiscoverFrom(start string) (*Repository, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return Open(current), nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrNotARepository
		}
		current = parent
	}
}

// Open creates a Repository for a known git root without discovery.
func Open(path string) *Repository {
	return &Repository{path: path, executor: NewExecutor(path)}
}

// Path returns the absolute repository root.
func (r *Repository) Path() string { return r.path }

// Executor returns the git executor bound to this repository.
func (r *Repository) Executor() *Executor { return r.executor }

// Snapshot reads the current repository state. Each call produces a fresh
// value with a monotonically increasing generation number.
func (r *Repository) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{Generation: r.generation.Add(1)}

	branch, detached := r.currentBranch()
	snap.Branch = branch
	snap.DetachedShort = detached
	if branch != "" {
		snap.Upstream = r.upstream(branch)
	}

	entries, err := r.status()
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		switch {
		case entry.IsUntracked():
			snap.Untracked = append(snap.Untracked, entry)
		default:
			if entry.Staged {
				snap.Staged = append(snap.Staged, entry)
			}
			if entry.Unstaged {
				snap.Unstaged = append(snap.Unstaged, entry)
			}
		}
	}
	snap.UntrackedTotal = len(snap.Untracked)
	snap.UnstagedTotal = len(snap.Unstaged)
	snap.StagedTotal = len(snap.Staged)
	snap.Untracked = capEntries(snap.Untracked)
	snap.Unstaged = capEntries(snap.Unstaged)
	snap.Staged = capEntries(snap.Staged)

	snap.RecentCommits = r.recentCommits(snapshotCommitCap)

	stashes := r.stashList()
	snap.StashCount = len(stashes)
	if len(stashes) > snapshotStashCap {
		stashes = stashes[:snapshotStashCap]
	}
	snap.Stashes = stashes

	snap.InProgress = r.inProgressOp()

	return snap, nil
}

func capEntries(entries []StatusEntry) []StatusEntry {
	if len(entries) > snapshotFileCap {
		return entries[:snapshotFileCap:snapshotFileCap]
	}
	return entries
}

// currentBranch returns the branch name, or the short HEAD id when detached.
func (r *Repository) currentBranch() (branch, detachedShort string) {
	out, err := r.executor.Execute("branch --show-current")
	if err == nil && out.Status == StatusSuccess {
		if name := strings.TrimSpace(out.Stdout); name != "" {
			return name, ""
		}
	}
	out, err = r.executor.Execute("rev-parse --short HEAD")
	if err == nil && out.Status == StatusSuccess {
		return "", strings.TrimSpace(out.Stdout)
	}
	// Unborn branch in a fresh repository.
	return "", ""
}

func (r *Repository) upstream(branch string) *Upstream {
	out, err := r.executor.Execute("for-each-ref --format=%(upstream:short) refs/heads/" + branch)
	if err != nil || out.Status != StatusSuccess {
		return nil
	}
	name := strings.TrimSpace(out.Stdout)
	if name == "" {
		return nil
	}

	up := &Upstream{Name: name}
	out, err = r.executor.Execute("rev-list --left-right --count " + branch + "..." + name)
	if err == nil && out.Status == StatusSuccess {
		counts := strings.Fields(out.Stdout)
		if len(counts) == 2 {
			up.Ahead, _ = strconv.Atoi(counts[0])
			up.Behind, _ = strconv.Atoi(counts[1])
		}
	}
	return up
}

func (r *Repository) status() ([]StatusEntry, error) {
	out, err := r.executor.Execute("status --porcelain=v2")
	if err != nil {
		return nil, err
	}
	if out.Status != StatusSuccess {
		return nil, errors.New("git status failed: " + strings.TrimSpace(out.Stderr))
	}
	return ParseStatusPorcelainV2(out.Stdout)
}

func (r *Repository) recentCommits(n int) []CommitEntry {
	out, err := r.executor.Execute("log -n " + strconv.Itoa(n) + " --format=%h%x00%s")
	if err != nil || out.Status != StatusSuccess {
		// Empty repository has no commits.
		return nil
	}
	return ParseLog(out.Stdout)
}

func (r *Repository) stashList() []StashEntry {
	out, err := r.executor.Execute("stash list --format=%gd%x00%s")
	if err != nil || out.Status != StatusSuccess {
		return nil
	}
	return ParseStashList(out.Stdout)
}

func (r *Repository) inProgressOp() InProgressOp {
	gitDir := filepath.Join(r.path, ".git")
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(gitDir, name))
		return err == nil
	}
	switch {
	case exists("MERGE_HEAD"):
		return OpMerge
	case exists("rebase-merge"), exists("rebase-apply"):
		return OpRebase
	case exists("CHERRY_PICK_HEAD"):
		return OpCherryPick
	default:
		return OpNone
	}
}
