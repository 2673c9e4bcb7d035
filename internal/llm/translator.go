package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gitalky/gitalky/internal/security"
)

// AuditSink receives validation-rejection records. Satisfied by
// *audit.Logger; injected at construction to keep dependencies pointing
// downward.
type AuditSink interface {
	LogValidationFailure(repoPath, query, llmOutput, reason string) error
}

// Translator turns a query into a validated git command: rate check,
// context build, one model call, output validation, security validation.
type Translator struct {
	client         Client
	contextBuilder *ContextBuilder
	validator      *security.Validator
	limiter        *RateLimiter
	audit          AuditSink
}

// NewTranslator wires a Translator without audit logging.
func NewTranslator(client Client, cb *ContextBuilder, validator *security.Validator) *Translator {
	return &Translator{
		client:         client,
		contextBuilder: cb,
		validator:      validator,
		limiter:        NewRateLimiter(),
	}
}

// NewTranslatorWithAudit wires a Translator that records rejected model
// outputs to the given sink.
func NewTranslatorWithAudit(client Client, cb *ContextBuilder, validator *security.Validator, sink AuditSink) *Translator {
	t := NewTranslator(client, cb, validator)
	t.audit = sink
	return t
}

// Translate performs exactly one model call for the query. Failures are
// never silent: invalid model output is rejected, audit-logged when a sink
// is attached, and surfaced to the caller.
func (t *Translator) Translate(ctx context.Context, query string) (*security.ValidatedCommand, error) {
	if err := t.limiter.Check(); err != nil {
		return nil, err
	}

	class := Classify(query)
	repoCtx, err := t.contextBuilder.Build(class)
	if err != nil {
		return nil, err
	}

	raw, err := t.client.Translate(ctx, query, repoCtx)
	if err != nil {
		return nil, err
	}

	if reason := ValidateOutput(raw); reason != "" {
		t.recordRejection(query, raw, reason)
		return nil, &InvalidOutputError{Reason: reason}
	}

	vc, err := t.validator.Validate(strings.TrimSpace(raw))
	if err != nil {
		t.recordRejection(query, raw, err.Error())
		return nil, &InvalidOutputError{Reason: err.Error()}
	}
	return vc, nil
}

func (t *Translator) recordRejection(query, output, reason string) {
	if t.audit == nil {
		return
	}
	if err := t.audit.LogValidationFailure(t.contextBuilder.RepoPath(), query, output, reason); err != nil {
		log.Warn().Err(err).Msg("failed to write audit record")
	}
}

// Hedging phrases that mean the model answered with prose instead of a
// command.
var hedgePhrases = []string{
	"I think", "I would", "You should", "Please", "Here's", "Here is", "Let me",
}

// ValidateOutput applies the output checks to a raw model reply and
// returns a rejection reason, or "" when the reply passes. The allowlist
// used here is the same constant the command validator enforces.
func ValidateOutput(output string) string {
	trimmed := strings.TrimSpace(output)

	if trimmed == "" {
		return "model returned empty output"
	}
	if len(trimmed) > 500 {
		return fmt.Sprintf("output too long (%d chars), expected a single git command", len(trimmed))
	}
	if strings.ContainsRune(trimmed, '\n') {
		return "output contains newlines, expected a single git command"
	}

	for _, meta := range []string{";", "|", "&", "$", "`", ">", "<"} {
		if strings.Contains(trimmed, meta) {
			return fmt.Sprintf("contains shell metacharacter %q", meta)
		}
	}

	first := strings.Fields(trimmed)[0]
	if first != "git" && !security.IsAllowedSubcommand(first) {
		return fmt.Sprintf("output does not look like a git command: %q", trimmed)
	}

	for _, phrase := range hedgePhrases {
		if strings.Contains(trimmed, phrase) {
			return fmt.Sprintf("output contains explanation text: %q", phrase)
		}
	}
	if trimmed[0] == '"' || trimmed[0] == '\'' {
		return "output starts with a quotation mark"
	}

	return ""
}
