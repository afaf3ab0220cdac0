package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingLength is returned when an array-mode group lacks a
	// parsable, non-negative length node.
	ErrMissingLength = errors.New("missing or invalid length attribute")
	// ErrUnresolvedTypeTag is returned when the type resolver finds no
	// type-tag node in an array-mode group.
	ErrUnresolvedTypeTag = errors.New("unresolved type tag")
	// ErrMalformedSize is returned when a size node is not a non-negative
	// integer or exceeds the bytes of the value it bounds.
	ErrMalformedSize = errors.New("malformed size attribute")
)

// ConversionError locates a conversion failure in the source forest.
type ConversionError struct {
	// Group is the slash-separated path of group names, child forests
	// included.
	Group string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("group %q: %v", e.Group, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
