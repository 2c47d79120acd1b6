// Package cms implements the parts of the Cryptographic Message Syntax
// (RFC 5652) needed to carry originator information and CAST5-CBC
// encrypted content in EnvelopedData.
package cms

import (
	"errors"
	"fmt"
)

// CMSError represents a CMS operation error with structured context.
// It supports errors.Is() and errors.As() for improved error handling.
type CMSError struct {
	Op  string // Operation: "normalize", "parse", "envelop", "open"
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *CMSError) Error() string {
	return fmt.Sprintf("cms %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CMSError) Unwrap() error { return e.Err }

// NewCMSError creates a new CMSError with the given operation and error.
func NewCMSError(op string, err error) *CMSError {
	return &CMSError{Op: op, Err: err}
}

// Sentinel errors for CMS operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrNormalization indicates a store entry could not be converted to
	// the expected certificate or CRL structure.
	ErrNormalization = errors.New("cannot normalize store entry")

	// ErrInvalidContent indicates the CMS content is malformed.
	ErrInvalidContent = errors.New("invalid CMS content")

	// ErrUnsupportedAlgorithm indicates an unsupported cryptographic algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrDecryptFailed indicates decryption of the CMS content failed.
	ErrDecryptFailed = errors.New("decryption failed")

	// ErrEncryptFailed indicates encryption of the CMS content failed.
	ErrEncryptFailed = errors.New("encryption failed")
)
