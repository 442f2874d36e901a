// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrDatabaseLocked = errors.New("database is busy")

	// Validation errors.
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrInvalidEstimate = errors.New("invalid budget estimate")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Friendly converts store-level failures into messages suitable for the
// terminal. Errors that are not recognized are returned unchanged.
func Friendly(err error) error {
	if err == nil {
		return nil
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}
	if errors.Is(err, ErrDatabaseLocked) {
		return NewUserError("the database is busy, please try again", err)
	}
	return err
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
