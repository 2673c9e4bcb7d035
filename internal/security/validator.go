package security

import (
	"fmt"
	"strings"
)

// ErrorKind classifies why a command was rejected.
type ErrorKind int

const (
	InvalidFormat ErrorKind = iota
	DisallowedSubcommand
	ShellMetacharacter
	DangerousFlag
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidFormat:
		return "invalid format"
	case DisallowedSubcommand:
		return "disallowed subcommand"
	case ShellMetacharacter:
		return "shell metacharacter"
	case DangerousFlag:
		return "dangerous flag"
	default:
		return "unknown"
	}
}

// ValidationError is returned when a proposed command fails validation.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// DangerKind labels a validated command that destroys or rewrites state.
// Labeling never rejects; it drives the confirmation gate one layer up.
type DangerKind int

const (
	DangerNone DangerKind = iota
	ForcePush
	HardReset
	Clean
	FilterBranch
	ForceCheckout
	DeleteBranch
	Rebase
)

func (d DangerKind) String() string {
	switch d {
	case ForcePush:
		return "force push"
	case HardReset:
		return "hard reset"
	case Clean:
		return "clean"
	case FilterBranch:
		return "filter-branch"
	case ForceCheckout:
		return "force checkout"
	case DeleteBranch:
		return "delete branch"
	case Rebase:
		return "rebase"
	default:
		return "none"
	}
}

// Description returns a short warning suitable for the confirmation prompt.
func (d DangerKind) Description() string {
	switch d {
	case ForcePush:
		return "Force push will overwrite remote history"
	case HardReset:
		return "Hard reset will discard uncommitted changes"
	case Clean:
		return "Clean will permanently delete untracked files"
	case FilterBranch:
		return "Filter-branch rewrites the entire repository history"
	case ForceCheckout:
		return "Force checkout will discard local modifications"
	case DeleteBranch:
		return "Deleting a branch may lose unmerged commits"
	case Rebase:
		return "Rebase rewrites commit history"
	default:
		return ""
	}
}

// ValidatedCommand is a proposed command that passed all checks, plus its
// danger classification.
type ValidatedCommand struct {
	Command     string
	IsDangerous bool
	Danger      DangerKind
}

// Validator enforces the subcommand allowlist, rejects injection attempts
// and code-execution flags, and tags dangerous operations.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a proposed command and returns it with a danger
// classification, or a *ValidationError describing the first failed check.
func (v *Validator) Validate(command string) (*ValidatedCommand, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return nil, &ValidationError{Kind: InvalidFormat, Detail: "empty command"}
	}

	if err := v.checkInjection(trimmed); err != nil {
		return nil, err
	}
	if err := v.checkDangerousFlags(trimmed); err != nil {
		return nil, err
	}

	// A compound command is permitted only when every part is itself a
	// valid git command, e.g. `git add -A && git commit -m "msg"`.
	if strings.Contains(trimmed, "&&") {
		for _, part := range strings.Split(trimmed, "&&") {
			if err := v.checkPart(strings.TrimSpace(part)); err != nil {
				return nil, err
			}
		}
	} else if err := v.checkPart(trimmed); err != nil {
		return nil, err
	}

	danger := detectDanger(trimmed)
	return &ValidatedCommand{
		Command:     trimmed,
		IsDangerous: danger != DangerNone,
		Danger:      danger,
	}, nil
}

// checkPart validates a single (non-compound) command: format and allowlist.
func (v *Validator) checkPart(part string) error {
	sub, err := extractSubcommand(part)
	if err != nil {
		return err
	}
	if !IsAllowedSubcommand(sub) {
		return &ValidationError{Kind: DisallowedSubcommand, Detail: sub}
	}
	return nil
}

// extractSubcommand strips an optional leading "git" token and skips flag
// tokens to find the subcommand.
func extractSubcommand(command string) (string, error) {
	rest := strings.TrimPrefix(command, "git ")
	for _, word := range strings.Fields(rest) {
		if !strings.HasPrefix(word, "-") {
			return word, nil
		}
	}
	return "", &ValidationError{Kind: InvalidFormat, Detail: "no subcommand found"}
}

// checkInjection rejects shell metacharacters and unbalanced quoting.
// `&&` is deliberately excluded here; compound commands are handled by
// Validate, which requires every part to be a valid git command.
func (v *Validator) checkInjection(command string) error {
	operators := []string{";", "||", "$(", "`", ">", "<"}
	for _, op := range operators {
		if strings.Contains(command, op) {
			return &ValidationError{Kind: ShellMetacharacter, Detail: fmt.Sprintf("%q", op)}
		}
	}

	// A lone pipe or ampersand is injection; && is the compound separator.
	stripped := strings.ReplaceAll(command, "&&", "")
	if strings.Contains(stripped, "|") || strings.Contains(stripped, "&") {
		return &ValidationError{Kind: ShellMetacharacter, Detail: "pipe or background operator"}
	}

	if !quotesBalanced(command) {
		return &ValidationError{Kind: ShellMetacharacter, Detail: "unbalanced quotes"}
	}
	return nil
}

func quotesBalanced(s string) bool {
	var inSingle, inDouble bool
	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		}
	}
	return !inSingle && !inDouble
}

// checkDangerousFlags rejects flags that enable arbitrary code execution or
// let git escape the repository root.
func (v *Validator) checkDangerousFlags(command string) error {
	if strings.Contains(command, "--exec") {
		return &ValidationError{Kind: DangerousFlag, Detail: "--exec"}
	}
	if strings.Contains(command, "--upload-pack") {
		return &ValidationError{Kind: DangerousFlag, Detail: "--upload-pack"}
	}
	if strings.Contains(command, "core.sshCommand") {
		return &ValidationError{Kind: DangerousFlag, Detail: "core.sshCommand"}
	}

	// -c sets arbitrary config (pager, hooks); -C changes the working
	// directory. -C is rejected in both `-C path` and `-C/path` forms.
	// No legitimate allowlisted command uses a token starting with -C.
	for _, word := range strings.Fields(command) {
		if word == "-c" {
			return &ValidationError{Kind: DangerousFlag, Detail: "-c"}
		}
		if strings.HasPrefix(word, "-C") {
			return &ValidationError{Kind: DangerousFlag, Detail: "-C"}
		}
	}
	return nil
}

// detectDanger classifies destructive operations. Detection is token based
// so that, for example, --force-with-lease is not mistaken for --force.
func detectDanger(command string) DangerKind {
	words := strings.Fields(strings.ToLower(command))
	has := func(tokens ...string) bool {
		for _, w := range words {
			for _, t := range tokens {
				if w == t {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("push") && has("--force", "-f"):
		return ForcePush
	case has("reset") && has("--hard"):
		return HardReset
	case has("clean") && cleanForced(words):
		return Clean
	case has("filter-branch"):
		return FilterBranch
	case has("checkout") && has("--force", "-f"):
		return ForceCheckout
	case has("branch") && has("-d", "--delete"):
		return DeleteBranch
	case has("rebase", "--rebase"):
		return Rebase
	default:
		return DangerNone
	}
}

// cleanForced matches -fd, -fdx, -df and the separate -f -d combination.
func cleanForced(words []string) bool {
	var force, dir bool
	for _, w := range words {
		if w == "--force" {
			force = true
			continue
		}
		if strings.HasPrefix(w, "-") && !strings.HasPrefix(w, "--") {
			if strings.ContainsRune(w, 'f') {
				force = true
			}
			if strings.ContainsRune(w, 'd') {
				dir = true
			}
		}
	}
	return force && dir
}
