// Package apperr defines the error taxonomy shared by the core packages.
// Every failure is synchronous and recoverable; surfaces translate these
// into user-visible responses.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an unknown user, group or message identifier.
var ErrNotFound = errors.New("not found")

// ErrPermissionDenied reports a restricted mutation attempted by a
// requester who is neither the owner/sender nor an admin.
var ErrPermissionDenied = errors.New("permission denied")

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
