package llm

import (
	"fmt"
	"strings"

	"github.com/gitalky/gitalky/internal/git"
)

// QueryClass selects which escalated context block accompanies a query.
type QueryClass int

const (
	ClassGeneral QueryClass = iota
	ClassStash
	ClassCommit
	ClassDiff
	ClassHistory
	ClassBranch
)

func (c QueryClass) String() string {
	switch c {
	case ClassStash:
		return "stash"
	case ClassCommit:
		return "commit"
	case ClassDiff:
		return "diff"
	case ClassHistory:
		return "history"
	case ClassBranch:
		return "branch"
	default:
		return "general"
	}
}

// Per-class vocabularies for classification. Matching is case-insensitive
// exact-word; ties are broken by the order of classPriority.
var classVocabulary = map[QueryClass][]string{
	ClassStash:   {"stash", "stashes", "stashed", "unstash"},
	ClassCommit:  {"commit", "commits", "committed", "stage", "staged", "staging", "unstage", "amend"},
	ClassDiff:    {"diff", "diffs", "change", "changes", "changed", "modified", "compare"},
	ClassHistory: {"log", "logs", "history", "recent"},
	ClassBranch:  {"branch", "branches", "checkout", "switch"},
}

var classPriority = []QueryClass{ClassStash, ClassCommit, ClassDiff, ClassHistory, ClassBranch}

// Classify derives a QueryClass from keyword presence in the query.
// Deterministic: the same query always yields the same class.
func Classify(query string) QueryClass {
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		words[w] = struct{}{}
	}

	for _, class := range classPriority {
		for _, keyword := range classVocabulary[class] {
			if _, ok := words[keyword]; ok {
				return class
			}
		}
	}
	return ClassGeneral
}

// Token budgets. The total soft budget is enforced by ordered truncation;
// the base summary survives every truncation pass.
const (
	totalTokenBudget = 5000

	truncationSentinel = "\n... [context truncated]"
)

// escalationBudget is the additional soft budget per class, in tokens.
var escalationBudget = map[QueryClass]int{
	ClassCommit:  1000,
	ClassBranch:  300,
	ClassDiff:    2000,
	ClassHistory: 1500,
	ClassStash:   800,
	ClassGeneral: 0,
}

// RepoContext is the bounded repository description sent to the model.
type RepoContext struct {
	Base            string
	Escalated       string
	EstimatedTokens int
	Truncated       bool
}

// Full returns the complete context string.
func (c *RepoContext) Full() string {
	return c.Base + c.Escalated
}

// EstimateTokens uses the ceil(chars/4) heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ContextBuilder assembles bounded, query-specific snapshots of repository
// state for the model.
type ContextBuilder struct {
	repo *git.Repository
}

func NewContextBuilder(repo *git.Repository) *ContextBuilder {
	return &ContextBuilder{repo: repo}
}

// RepoPath exposes the repository root for audit records.
func (b *ContextBuilder) RepoPath() string {
	return b.repo.Path()
}

// Build produces the context for a classified query: the base description
// plus the class-specific escalation, truncated to the token budget.
func (b *ContextBuilder) Build(class QueryClass) (*RepoContext, error) {
	snap, err := b.repo.Snapshot()
	if err != nil {
		return nil, err
	}

	summary := b.buildSummary(snap)
	files := b.buildFileLists(snap)
	history := b.buildHistory(snap)
	stash := b.buildStash(snap)
	escalated := b.buildEscalated(class)

	ctx := assembleContext(summary, files, history, stash, escalated)
	return ctx, nil
}

// assembleContext joins the sections and enforces the token budget by
// truncating the least-prioritized sections first: history, then stash
// detail, then file lists, then the escalated block. The base summary is
// truncated only as a last resort and never dropped.
func assembleContext(summary, files, history, stash, escalated string) *RepoContext {
	compose := func(files, history, stash, escalated string) (string, string) {
		return summary + files + history + stash, escalated
	}

	base, esc := compose(files, history, stash, escalated)
	ctx := &RepoContext{Base: base, Escalated: esc}
	ctx.EstimatedTokens = EstimateTokens(ctx.Full())
	if ctx.EstimatedTokens <= totalTokenBudget {
		return ctx
	}

	ctx.Truncated = true
	for _, drop := range []func(){
		func() { history = truncationSentinel + "\n" },
		func() { stash = "" },
		func() { files = truncationSentinel + "\n" },
	} {
		drop()
		base, esc = compose(files, history, stash, escalated)
		ctx.Base, ctx.Escalated = base, esc
		ctx.EstimatedTokens = EstimateTokens(ctx.Full())
		if ctx.EstimatedTokens <= totalTokenBudget {
			return ctx
		}
	}

	// Still over budget: chop the escalated block character-wise.
	available := totalTokenBudget - EstimateTokens(ctx.Base)
	if available > 0 {
		maxChars := available*4 - len(truncationSentinel)
		if maxChars > 0 && len(escalated) > maxChars {
			escalated = escalated[:maxChars] + truncationSentinel
		}
	} else {
		escalated = ""
	}
	ctx.Escalated = escalated
	ctx.EstimatedTokens = EstimateTokens(ctx.Full())
	if ctx.EstimatedTokens <= totalTokenBudget {
		return ctx
	}

	// Pathological summary size; trim it too, but keep its head. The slice
	// bound is clamped: when the escalated chop was skipped the base can be
	// a few characters short of the budget.
	maxChars := totalTokenBudget*4 - len(truncationSentinel)
	if maxChars > len(ctx.Base) {
		maxChars = len(ctx.Base)
	}
	ctx.Base = ctx.Base[:maxChars] + truncationSentinel
	ctx.Escalated = ""
	ctx.EstimatedTokens = EstimateTokens(ctx.Full())
	return ctx
}

func (b *ContextBuilder) buildSummary(snap *git.Snapshot) string {
	var sb strings.Builder

	if snap.Detached() {
		fmt.Fprintf(&sb, "Detached HEAD at %s\n", snap.DetachedShort)
	} else {
		fmt.Fprintf(&sb, "Current branch: %s\n", snap.Branch)
		if up := snap.Upstream; up != nil {
			fmt.Fprintf(&sb, "Upstream: %s (ahead: %d, behind: %d)\n", up.Name, up.Ahead, up.Behind)
		}
	}

	if snap.InProgress != git.OpNone {
		fmt.Fprintf(&sb, "Operation in progress: %s\n", snap.InProgress)
	}

	fmt.Fprintf(&sb, "Staged: %d, unstaged: %d, untracked: %d files\n",
		snap.StagedTotal, snap.UnstagedTotal, snap.UntrackedTotal)

	return sb.String()
}

// buildFileLists writes the three capped file lists with full relative
// paths so the model can resolve fuzzy user references against them.
func (b *ContextBuilder) buildFileLists(snap *git.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("\n=== Repository Files ===\n")

	writeList := func(label string, entries []git.StatusEntry, total int) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n%s:\n", label)
		for _, e := range entries {
			fmt.Fprintf(&sb, "  %s\n", e.Path)
		}
		if overflow := total - len(entries); overflow > 0 {
			fmt.Fprintf(&sb, "  ... and %d more\n", overflow)
		}
	}

	writeList("Staged files", snap.Staged, snap.StagedTotal)
	writeList("Unstaged files", snap.Unstaged, snap.UnstagedTotal)
	writeList("Untracked files", snap.Untracked, snap.UntrackedTotal)

	return sb.String()
}

func (b *ContextBuilder) buildHistory(snap *git.Snapshot) string {
	if len(snap.RecentCommits) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n=== Recent Commits ===\n")
	for _, c := range snap.RecentCommits {
		fmt.Fprintf(&sb, "%s: %s\n", c.ShortHash, c.Subject)
	}
	return sb.String()
}

func (b *ContextBuilder) buildStash(snap *git.Snapshot) string {
	if snap.StashCount == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nStashes: %d\n", snap.StashCount)
	for _, s := range snap.Stashes {
		fmt.Fprintf(&sb, "  %s: %s\n", s.Ref, s.Subject)
	}
	return sb.String()
}

// buildEscalated adds class-specific content, each block capped by its own
// soft budget. Escalation commands are best-effort; a failing git call
// simply yields a smaller context.
func (b *ContextBuilder) buildEscalated(class QueryClass) string {
	exec := b.repo.Executor()
	run := func(command string, maxLines int) string {
		out, err := exec.Execute(command)
		if err != nil || out.Status != git.StatusSuccess {
			return ""
		}
		text := out.Stdout
		if maxLines > 0 {
			lines := strings.SplitN(text, "\n", maxLines+1)
			if len(lines) > maxLines {
				text = strings.Join(lines[:maxLines], "\n") + "\n"
			}
		}
		return text
	}

	var block string
	switch class {
	case ClassCommit:
		stat := run("diff --stat --cached", 0)
		staged := run("diff --staged", 20)
		if stat != "" || staged != "" {
			block = "\n=== Staged Changes ===\n" + stat + staged
		}
	case ClassBranch:
		branches := run("branch -vv --all", 0)
		if branches != "" {
			block = "\n=== Branches ===\n" + branches
		}
	case ClassDiff:
		diff := run("diff", 100)
		if diff != "" {
			block = "\n=== Working Tree Diff ===\n" + diff
		}
	case ClassHistory:
		logOut := run("log -n 50 --date=short --format=%h %an %ad %s", 0)
		if logOut != "" {
			block = "\n=== Commit History ===\n" + logOut
		}
	case ClassStash:
		list := run("stash list", 0)
		if list != "" {
			block = "\n=== Stashes ===\n" + list + run("stash show stash@{0}", 0)
		}
	case ClassGeneral:
		// No escalation.
	}

	if budget := escalationBudget[class]; budget > 0 && block != "" {
		maxChars := budget * 4
		if len(block) > maxChars {
			block = block[:maxChars] + truncationSentinel
		}
	}
	return block
}
