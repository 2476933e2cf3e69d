// Package errors defines the application error taxonomy. Errors are
// categorized so callers (the API layer, the scheduler) can decide whether a
// failure is the caller's fault, a missing resource, a transient collaborator
// problem, or a configuration gap.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an application error.
type Category string

const (
	// CategoryValidation marks malformed input rejected before any state change.
	CategoryValidation Category = "validation"
	// CategoryNotFound marks references to unknown devices, rules, or alerts.
	CategoryNotFound Category = "not_found"
	// CategoryTransient marks collaborator failures that are safe to retry and
	// must not abort work for other devices or rules.
	CategoryTransient Category = "transient"
	// CategoryConfiguration marks configuration gaps handled with a documented
	// fallback rather than a failed operation.
	CategoryConfiguration Category = "configuration"
)

// Error is a categorized application error.
type Error struct {
	Cat Category
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same category, so sentinel-style checks like
// errors.Is(err, ErrNotFound) work on any wrapped categorized error.
func (e *Error) Is(target error) bool {
	var appErr *Error
	if errors.As(target, &appErr) {
		return appErr.Msg == "" && appErr.Cat == e.Cat
	}
	return false
}

// Category sentinels for errors.Is checks.
var (
	ErrValidation    = &Error{Cat: CategoryValidation}
	ErrNotFound      = &Error{Cat: CategoryNotFound}
	ErrTransient     = &Error{Cat: CategoryTransient}
	ErrConfiguration = &Error{Cat: CategoryConfiguration}
)

// Validationf creates a validation error.
func Validationf(format string, args ...any) error {
	return &Error{Cat: CategoryValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not-found error.
func NotFoundf(format string, args ...any) error {
	return &Error{Cat: CategoryNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Transientf wraps a collaborator failure.
func Transientf(err error, format string, args ...any) error {
	return &Error{Cat: CategoryTransient, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Configurationf creates a configuration error.
func Configurationf(format string, args ...any) error {
	return &Error{Cat: CategoryConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTransient reports whether err is a transient collaborator error.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// Standard library re-exports so callers need a single errors import.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error with the given text.
func New(text string) error { return errors.New(text) }
