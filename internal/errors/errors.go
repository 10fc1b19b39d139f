// Package errors provides error wrapping with component and category
// tagging, plus re-exports of the standard library helpers so callers
// need only one errors import.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an error for handling and reporting decisions.
type Category string

const (
	// CategoryTransient marks recoverable I/O failures (perception,
	// verification, transport). The tick is skipped, never fatal.
	CategoryTransient Category = "transient"
	// CategoryPersistence marks datastore failures. Logged and swallowed.
	CategoryPersistence Category = "persistence"
	// CategoryValidation marks malformed input (payloads, requests).
	CategoryValidation Category = "validation"
	// CategoryNotFound marks missing tasks, baselines, or records.
	CategoryNotFound Category = "not-found"
	// CategoryConfig marks configuration problems detected at startup.
	CategoryConfig Category = "config"
)

// TaggedError carries a component name and category alongside the cause.
type TaggedError struct {
	Component string
	Cat       Category
	Err       error
}

func (e *TaggedError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}
	return e.Err.Error()
}

func (e *TaggedError) Unwrap() error { return e.Err }

// Tag wraps err with a component name and category. Returns nil if err is nil.
func Tag(err error, component string, cat Category) error {
	if err == nil {
		return nil
	}
	return &TaggedError{Component: component, Cat: cat, Err: err}
}

// CategoryOf returns the category of err if it (or anything it wraps) is
// tagged, or the empty Category otherwise.
func CategoryOf(err error) Category {
	var te *TaggedError
	if errors.As(err, &te) {
		return te.Cat
	}
	return ""
}

// IsTransient reports whether err is tagged transient.
func IsTransient(err error) bool { return CategoryOf(err) == CategoryTransient }

// New returns an error with the given text.
func New(text string) error { return errors.New(text) }

// Newf returns a formatted error. Supports %w wrapping.
func Newf(format string, args ...any) error { return fmt.Errorf(format, args...) }

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Join returns an error wrapping the given errors.
func Join(errs ...error) error { return errors.Join(errs...) }
