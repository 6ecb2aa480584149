// Package apperr tags errors with the failure taxonomy from the system's
// error handling design so the HTTP and CLI surfaces can map them to a
// status code / exit code without re-deriving the category from message text.
package apperr

import (
	"errors"
	"fmt"
)

// Category is one of the six failure classes the core distinguishes.
type Category int

const (
	// CategoryValidation covers bad input: unknown extension, missing field,
	// malformed body, a path that escapes the project root.
	CategoryValidation Category = iota
	// CategoryNotFound covers a missing image, board, or embedding.
	CategoryNotFound
	// CategoryStorage covers SQLite and filesystem failures.
	CategoryStorage
	// CategoryExternalProvider covers vision API failures: non-2xx, bad body, network error.
	CategoryExternalProvider
	// CategoryInference covers CLIP model init/inference failures.
	CategoryInference
	// CategoryBestEffort marks a failure that is logged but never raised to the caller.
	CategoryBestEffort
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryNotFound:
		return "not_found"
	case CategoryStorage:
		return "storage"
	case CategoryExternalProvider:
		return "external_provider"
	case CategoryInference:
		return "inference"
	case CategoryBestEffort:
		return "best_effort"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Category and an optional prefix
// (e.g. a provider name) that callers want preserved verbatim in the message.
type Error struct {
	Category Category
	Prefix   string
	Err      error
}

func (e *Error) Error() string {
	if e.Prefix != "" {
		return fmt.Sprintf("%s: %s", e.Prefix, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New tags err with category. Returns nil if err is nil.
func New(category Category, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Err: err}
}

// Newf is New with fmt.Errorf-style formatting.
func Newf(category Category, format string, args ...any) error {
	return &Error{Category: category, Err: fmt.Errorf(format, args...)}
}

// WithPrefix tags err with category and a verbatim prefix (e.g. provider name).
func WithPrefix(category Category, prefix string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Prefix: prefix, Err: err}
}

// CategoryOf extracts the Category from err, walking the Unwrap chain.
// Returns (0, false) if no *Error is found.
func CategoryOf(err error) (Category, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return 0, false
}

// Is reports whether err (or something it wraps) carries the given category.
func Is(err error, category Category) bool {
	c, ok := CategoryOf(err)
	return ok && c == category
}
