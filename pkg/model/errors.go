package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedModel indicates the artifact content is inconsistent
	// with the dimensions it declares.
	ErrMalformedModel = errors.New("malformed model")
	// ErrDimensionMismatch indicates adjacent layers (or the configured
	// topology) don't agree on dimensions.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Error provides details about a model load failure.
// Kind is one of ErrMalformedModel or ErrDimensionMismatch.
type Error struct {
	Kind   error
	Layer  int
	Reason string
}

func malformed(layer int, format string, args ...interface{}) error {
	return &Error{Kind: ErrMalformedModel, Layer: layer, Reason: fmt.Sprintf(format, args...)}
}

func mismatch(layer int, format string, args ...interface{}) error {
	return &Error{Kind: ErrDimensionMismatch, Layer: layer, Reason: fmt.Sprintf(format, args...)}
}

// Error implements error.
func (e *Error) Error() string {
	if e.Layer < 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%v: layer %d: %s", e.Kind, e.Layer, e.Reason)
}

// Unwrap supports errors.Is against the Kind.
func (e *Error) Unwrap() error {
	return e.Kind
}
