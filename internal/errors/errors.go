package errors

import (
	"errors"
	"fmt"
)

// Common error types for the desk bridge
var (
	// Token lifecycle errors
	ErrReauthorizationRequired     = errors.New("reauthorization required")
	ErrTokenRefreshFailed          = errors.New("token refresh failed")
	ErrAuthorizationExchangeFailed = errors.New("authorization exchange failed")

	// Lookup errors
	ErrNotFound = errors.New("not found")

	// General errors
	ErrInvalidState = errors.New("invalid state")
	ErrInternal     = errors.New("internal error")
)

// ProviderError carries the identity provider's HTTP status and message for a
// rejected token-endpoint call. Match the taxonomy with errors.Is against Kind
// and retrieve the detail with errors.As.
type ProviderError struct {
	Kind       error
	StatusCode int
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: provider returned %s: %s", e.Kind, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// Classify attaches a taxonomy sentinel to a lower-level failure so callers can
// match with errors.Is while keeping provider detail reachable via errors.As.
func Classify(kind, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		pe.Kind = kind
		return pe
	}
	return fmt.Errorf("%w: %v", kind, err)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
