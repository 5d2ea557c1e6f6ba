package selector

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingType is returned when a spec names no selector type
	ErrMissingType = errors.New("selector type is required")

	// ErrUnknownType is returned when no selector is registered under the type
	ErrUnknownType = errors.New("unknown selector type")

	// ErrDuplicateType is returned when a type is registered twice
	ErrDuplicateType = errors.New("selector type already registered")
)

// SpecError is a validation failure of one spec field
type SpecError struct {
	Index int
	Field string
	Err   error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("spec #%d: field %q: %v", e.Index, e.Field, e.Err)
}

func (e *SpecError) Unwrap() error {
	return e.Err
}

// LoadError is a failure to resolve or construct a selector
type LoadError struct {
	Type  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load selector %q: %v", e.Type, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
