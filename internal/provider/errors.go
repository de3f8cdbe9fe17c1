package provider

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownResourceTypeError is returned when no reconciler is registered for a type.
type UnknownResourceTypeError struct {
	TypeName string
	Known    []string
}

func (e *UnknownResourceTypeError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown resource type %q: no types registered", e.TypeName)
	}
	return fmt.Sprintf("unknown resource type %q (known: %s)", e.TypeName, strings.Join(e.Known, ", "))
}

// IsUnknownResourceType checks if err is or wraps an UnknownResourceTypeError.
func IsUnknownResourceType(err error) bool {
	var target *UnknownResourceTypeError
	return errors.As(err, &target)
}
