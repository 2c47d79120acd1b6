// Package cast5 implements CAST5 (CAST-128, RFC 2144) algorithm parameters
// for use in CMS content encryption (RFC 2984).
package cast5

import (
	"errors"
	"fmt"
)

// ParamsError represents a parameter operation error with structured context.
// It supports errors.Is() and errors.As() for improved error handling.
type ParamsError struct {
	Op  string // Operation: "init", "decode", "encode", "spec", "generate", "cipher"
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *ParamsError) Error() string {
	return fmt.Sprintf("cast5 %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParamsError) Unwrap() error { return e.Err }

// NewParamsError creates a new ParamsError with the given operation and error.
func NewParamsError(op string, err error) *ParamsError {
	return &ParamsError{Op: op, Err: err}
}

// Sentinel errors for CAST5 parameter operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrUnsupportedSpecType indicates a parameter spec of the wrong type was
	// passed to Init or requested from ParameterSpec.
	ErrUnsupportedSpecType = errors.New("unsupported parameter spec type")

	// ErrUnknownParameterFormat indicates decoding was requested with an
	// unrecognized format selector.
	ErrUnknownParameterFormat = errors.New("unknown parameters format")

	// ErrUnsupportedOperation indicates generation parameters were supplied
	// to a generator that accepts none.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrGenerationFailure wraps any failure while generating parameters.
	ErrGenerationFailure = errors.New("parameter generation failed")

	// ErrInvalidEncoding indicates the structured encoding is malformed.
	ErrInvalidEncoding = errors.New("invalid parameters encoding")

	// ErrInvalidKeySize indicates a key of the wrong length for CAST5.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidIV indicates a missing IV or one whose length does not match
	// the block size.
	ErrInvalidIV = errors.New("invalid initialization vector")
)
