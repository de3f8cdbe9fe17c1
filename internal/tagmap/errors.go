package tagmap

import (
	"errors"
	"fmt"
)

// EncodingError reports a tag that cannot be encoded without ambiguity.
type EncodingError struct {
	Key    string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode tag %q=%q: %s", e.Key, e.Value, e.Reason)
}

// DecodingError reports a malformed segment in tag text.
type DecodingError struct {
	Segment string
	Reason  string
}

// Error implements the error interface.
func (e *DecodingError) Error() string {
	return fmt.Sprintf("cannot decode tag segment %q: %s", e.Segment, e.Reason)
}

// IsEncodingError checks if an error is or wraps an *EncodingError.
func IsEncodingError(err error) bool {
	var encErr *EncodingError
	return errors.As(err, &encErr)
}

// IsDecodingError checks if an error is or wraps a *DecodingError.
func IsDecodingError(err error) bool {
	var decErr *DecodingError
	return errors.As(err, &decErr)
}
