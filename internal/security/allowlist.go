package security

// AllowedGitSubcommands is the allowlist of git subcommands that may appear
// as the first token of a command. It is the single source of truth shared
// by the command validator and the translator's LLM-output check; both must
// accept exactly this set.
//
// Adding a subcommand here requires a security review: anything that can
// spawn external programs (hooks aside) or escape the repository root does
// not belong on this list.
var AllowedGitSubcommands = []string{
	// Read operations
	"status",
	"log",
	"show",
	"diff",
	"branch",
	"tag",
	"remote",
	"reflog",
	"blame",
	"describe",
	// Write operations
	"add",
	"commit",
	"checkout",
	"switch",
	"restore",
	"reset",
	"revert",
	"merge",
	"rebase",
	"cherry-pick",
	"stash",
	"clean",
	// Remote operations
	"push",
	"pull",
	"fetch",
	"clone",
	// Configuration (repo-level only)
	"config",
	// Dangerous operations (require confirmation)
	"filter-branch",
}

var allowedSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AllowedGitSubcommands))
	for _, sub := range AllowedGitSubcommands {
		set[sub] = struct{}{}
	}
	return set
}()

// IsAllowedSubcommand reports whether sub is on the allowlist.
func IsAllowedSubcommand(sub string) bool {
	_, ok := allowedSet[sub]
	return ok
}
