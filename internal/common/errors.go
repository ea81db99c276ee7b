// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Dataset errors.
	ErrNoDataset        = errors.New("no dataset found")
	ErrNotAnalyzed      = errors.New("dataset not analyzed")
	ErrInvalidDataset   = errors.New("invalid dataset")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrNonNumericColumn = errors.New("column is not numeric")
	ErrInsufficientRows = errors.New("insufficient rows")
	ErrInvalidThreshold = errors.New("invalid threshold")

	// Store errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Inference errors.
	ErrInference = errors.New("inference request failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Messages returned to callers when a precondition is not met.
const (
	MsgNoDataset       = "No dataset found. Run generate_data first."
	MsgOutliersMissing = "Outlier analysis not found. Please run analyze_outliers first."
	MsgLogNotAnalyzed  = "Data must be analyzed before logging. Run analyze_outliers first."
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

// UserMessage returns the user-facing message carried by err, if any.
func UserMessage(err error) (string, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage, true
	}
	return "", false
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
