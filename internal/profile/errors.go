package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaInference is returned when a declared data type or a sample
	// value cannot be interpreted.
	ErrSchemaInference = errors.New("profile: schema inference failed")

	// ErrProfileNotFound is returned by stores when no profile is saved for an entity.
	ErrProfileNotFound = errors.New("profile: not found")
)

// SchemaInferenceError describes a column whose declared type or values
// could not be interpreted.
type SchemaInferenceError struct {
	Column   string
	DataType string
	Reason   string
}

// Error returns the error string.
func (e *SchemaInferenceError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("profile: cannot interpret data type %q: %s", e.DataType, e.Reason)
	}
	return fmt.Sprintf("profile: column %s: cannot interpret data type %q: %s", e.Column, e.DataType, e.Reason)
}

// Is reports whether the target error matches ErrSchemaInference.
func (e *SchemaInferenceError) Is(err error) bool {
	return err == ErrSchemaInference
}

// IsSchemaInference returns true if the error is a SchemaInferenceError.
func IsSchemaInference(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaInferenceError
	return errors.As(err, &e) || errors.Is(err, ErrSchemaInference)
}
