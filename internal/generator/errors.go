package generator

import (
	"errors"
	"fmt"
)

// ErrPatternExhaustion is returned when an identifier column cannot produce
// enough distinct values.
var ErrPatternExhaustion = errors.New("generator: identifier pattern exhausted")

// PatternExhaustionError reports an identifier column whose pattern cannot
// supply the requested number of distinct values.
type PatternExhaustionError struct {
	Column    string
	Pattern   string
	Requested int
	Space     float64
	Attempts  int
}

// Error returns the error string.
func (e *PatternExhaustionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("generator: column %s: gave up after %d draws producing %d distinct values from %s",
			e.Column, e.Attempts, e.Requested, e.Pattern)
	}
	return fmt.Sprintf("generator: column %s: pattern %s has %.0f distinct values, %d requested",
		e.Column, e.Pattern, e.Space, e.Requested)
}

// Is reports whether the target error matches ErrPatternExhaustion.
func (e *PatternExhaustionError) Is(err error) bool {
	return err == ErrPatternExhaustion
}

// IsPatternExhaustion returns true if the error is a PatternExhaustionError.
func IsPatternExhaustion(err error) bool {
	if err == nil {
		return false
	}
	var e *PatternExhaustionError
	return errors.As(err, &e) || errors.Is(err, ErrPatternExhaustion)
}

// ColumnError ties a generation failure to its column.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %s: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}
