// Package apperrors provides the unified application error envelope and
// the helpers the UI uses to present failures to the user.
package apperrors

import (
	"errors"
	"fmt"
)

// Category identifies which subsystem an error came from.
type Category int

const (
	CategoryGit Category = iota
	CategoryConfig
	CategoryLLM
	CategoryTranslation
	CategorySecurity
	CategoryIO
)

func (c Category) String() string {
	switch c {
	case CategoryGit:
		return "git"
	case CategoryConfig:
		return "config"
	case CategoryLLM:
		return "llm"
	case CategoryTranslation:
		return "translation"
	case CategorySecurity:
		return "security"
	case CategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// AppError wraps a subsystem error with its category so application-level
// code can handle failures uniformly while errors.Is/As still reach the
// underlying typed error.
type AppError struct {
	Category Category
	Err      error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Category, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap attaches a category to err. Returns nil for a nil err; an error
// already carrying a category passes through unchanged.
func Wrap(category Category, err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return err
	}
	return &AppError{Category: category, Err: err}
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
