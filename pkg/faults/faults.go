// Package faults defines the failure taxonomy shared by every core
// operation: a small set of sentinel kinds callers branch on with
// errors.Is, wrapped with the operation that failed.
package faults

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthRequired means no usable credential: the caller should
	// prompt for re-authentication, never retry silently.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRemoteUnavailable covers transport errors, timeouts and 5xx
	// responses from the remote collection.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrInvariantViolation means the remote rejected a state change
	// (e.g. an exclusivity swap) or reported malformed state.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrValidation is returned before any network call for input the
	// core can reject on its own.
	ErrValidation = errors.New("validation failed")
)

// Wrap annotates a sentinel kind with the operation and detail.
func Wrap(kind error, op string, detail string) error {
	if detail == "" {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %s", op, kind, detail)
}

// FromStatus maps an HTTP response code from the remote collection to
// a failure kind. Success codes map to nil.
func FromStatus(code int) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAuthRequired
	case code == http.StatusConflict || code == http.StatusUnprocessableEntity:
		return ErrInvariantViolation
	case code == http.StatusBadRequest:
		return ErrValidation
	default:
		return ErrRemoteUnavailable
	}
}
