package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidDimensions   = errors.New("invalid dimensions")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRateLimited         = errors.New("ai gateway rate limited")
	ErrQuotaExhausted      = errors.New("ai gateway quota exhausted")
	ErrEmptyImage          = errors.New("no image in generation response")
	ErrProviderFailure     = errors.New("provider failure")
)

// InsufficientCreditsError carries the balance information a caller needs to
// tell the user how many credits are missing.
type InsufficientCreditsError struct {
	Balance       int
	CreditsNeeded int
	Cause         error
}

func (e *InsufficientCreditsError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("insufficient credits: credit check failed: %v", e.Cause)
	}
	return fmt.Sprintf("insufficient credits: balance %d, needed %d", e.Balance, e.CreditsNeeded)
}

func (e *InsufficientCreditsError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInsufficientCredits, e.Cause}
	}
	return []error{ErrInsufficientCredits}
}

// IsRetryable reports whether the caller may re-invoke the same operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
