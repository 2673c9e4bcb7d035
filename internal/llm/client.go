// Package llm turns natural-language queries into validated git commands
// using an external language model. Model replies are untrusted input and
// pass a strict output validator before they go anywhere near git.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Client is the single capability a model provider must offer: translate a
// query, given repository context, into one raw reply line. Providers are
// swapped at construction.
type Client interface {
	// Translate sends the query and context to the model and returns the
	// raw reply. The reply is unvalidated; callers must not trust it.
	Translate(ctx context.Context, query string, repoCtx *RepoContext) (string, error)

	// Ping probes endpoint reachability with a short deadline.
	Ping(ctx context.Context) error
}

// LLMErrorKind classifies provider failures.
type LLMErrorKind int

const (
	LLMNetwork LLMErrorKind = iota
	LLMTimeout
	LLMAPIError
	LLMRateLimit
)

func (k LLMErrorKind) String() string {
	switch k {
	case LLMNetwork:
		return "network error"
	case LLMTimeout:
		return "request timeout"
	case LLMAPIError:
		return "api error"
	case LLMRateLimit:
		return "provider rate limit"
	default:
		return "unknown"
	}
}

// LLMError wraps a provider-side failure.
type LLMError struct {
	Kind   LLMErrorKind
	Detail string
	Err    error
}

func (e *LLMError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LLMError) Unwrap() error { return e.Err }

// RateLimitedError is returned by the local sliding-window limiter before
// any HTTP request is issued.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.Wait.Round(time.Second))
}

// InvalidOutputError means the model reply failed the output validator.
type InvalidOutputError struct {
	Reason string
}

func (e *InvalidOutputError) Error() string {
	return "model returned invalid output: " + e.Reason
}
