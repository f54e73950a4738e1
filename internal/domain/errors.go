package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is matched by every *ValidationError.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrDuplicateID is returned when adding an entry whose id is taken.
	ErrDuplicateID = errors.New("duplicate entry id")
	// ErrNoMeal is returned when a draft names nothing that was eaten.
	ErrNoMeal = errors.New("please provide what you ate")
)

// ValidationError names the offending field of a rejected entry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid entry: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEntry
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func invalidf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
