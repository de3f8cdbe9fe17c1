package manifest

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when no manifest exists for a resource.
type NotFoundError struct {
	Type string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("manifest %s/%s not found", e.Type, e.Name)
}

// IsNotFound checks if an error is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// ParseError reports a manifest file that could not be rendered, decoded or validated.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError checks if an error is or wraps a *ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
