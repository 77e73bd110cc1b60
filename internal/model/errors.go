package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error taxonomy. Concrete failures are marked with one of these so callers
// can classify them with errors.Is while keeping a human-readable message.
var (
	// ErrValidation marks malformed or unknown input (property, value, toggle, range)
	ErrValidation = errors.New("validation failed")

	// ErrIntegrity marks a deletion that would leave dangling references
	ErrIntegrity = errors.New("integrity violation")

	// ErrRemoteUnavailable marks a failed remote call (predictor, registry transport)
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// ErrEmptyInput marks an identification request without observations
	ErrEmptyInput = errors.New("at least one observation is required")

	// ErrNotFound marks a lookup of a class, property or value that does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict marks creation of a name that already exists
	ErrConflict = errors.New("already exists")
)

// UnknownPropertyError is returned when an observation names a property
// missing from the registry.
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %q", e.Name)
}

// Is makes UnknownPropertyError a validation error
func (e *UnknownPropertyError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidValueError is returned when an observed value does not fit the
// property kind (a non-numeric value for a numeric property).
type InvalidValueError struct {
	Property string
	Value    string
	Reason   string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for property %q: %s", e.Value, e.Property, e.Reason)
}

// Is makes InvalidValueError a validation error
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a validation error naming the offending field
func NewValidationError(field, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("invalid %s: %s", field, fmt.Sprintf(format, args...)), ErrValidation)
}

// NewIntegrityError builds an integrity error
func NewIntegrityError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("%s", fmt.Sprintf(format, args...)), ErrIntegrity)
}

// NewNotFoundError builds a not-found error. Referencing something that does
// not exist is also a validation failure of the request naming it.
func NewNotFoundError(kind, name string) error {
	return errors.Mark(errors.Mark(errors.Newf("%s %q not found", kind, name), ErrNotFound), ErrValidation)
}

// UnknownProperty returns an UnknownPropertyError that also classifies as not found
func UnknownProperty(name string) error {
	return errors.Mark(&UnknownPropertyError{Name: name}, ErrNotFound)
}

// NewConflictError builds an already-exists error
func NewConflictError(kind, name string) error {
	return errors.Mark(errors.Newf("%s %q already exists", kind, name), ErrConflict)
}

// NewRemoteUnavailableError wraps a transport-level failure. A nil cause is allowed.
func NewRemoteUnavailableError(cause error, what string) error {
	if cause == nil {
		return errors.Mark(errors.Newf("%s failed", what), ErrRemoteUnavailable)
	}
	return errors.Mark(errors.Wrapf(cause, "%s failed", what), ErrRemoteUnavailable)
}

// IsValidation reports whether err is a local validation failure
func IsValidation(err error) bool {
	return err != nil && (errors.Is(err, ErrValidation) || errors.Is(err, ErrEmptyInput))
}

// IsRemoteUnavailable reports whether err is a remote failure
func IsRemoteUnavailable(err error) bool {
	return err != nil && errors.Is(err, ErrRemoteUnavailable)
}
