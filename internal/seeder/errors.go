package seeder

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCyclicDependency is returned when entities reference each other in a
// cycle and no generation order exists.
var ErrCyclicDependency = errors.New("seeder: cyclic dependency")

// CyclicDependencyError lists the entities that could not be ordered.
type CyclicDependencyError struct {
	Entities []string
}

// Error returns the error string.
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("seeder: circular dependency detected involving: %s", strings.Join(e.Entities, ", "))
}

// Is reports whether the target error matches ErrCyclicDependency.
func (e *CyclicDependencyError) Is(err error) bool {
	return err == ErrCyclicDependency
}

// IsCyclicDependency returns true if the error is a CyclicDependencyError.
func IsCyclicDependency(err error) bool {
	if err == nil {
		return false
	}
	var e *CyclicDependencyError
	return errors.As(err, &e) || errors.Is(err, ErrCyclicDependency)
}
