package reference

import (
	"errors"
	"fmt"
)

// ErrReferenceUnavailable is returned when a referenced column cannot supply
// the requested number of values.
var ErrReferenceUnavailable = errors.New("reference: referenced values unavailable")

// ReferenceUnavailableError describes a failed foreign key lookup.
type ReferenceUnavailableError struct {
	Table  string
	Column string
	Reason string
	Err    error
}

// Error returns the error string.
func (e *ReferenceUnavailableError) Error() string {
	msg := fmt.Sprintf("reference: %s.%s: %s", e.Table, e.Column, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the provider error, if any.
func (e *ReferenceUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrReferenceUnavailable.
func (e *ReferenceUnavailableError) Is(err error) bool {
	return err == ErrReferenceUnavailable
}

// IsReferenceUnavailable returns true if the error is a ReferenceUnavailableError.
func IsReferenceUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var target *ReferenceUnavailableError
	return errors.As(err, &target) || errors.Is(err, ErrReferenceUnavailable)
}
