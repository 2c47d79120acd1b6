// Package dto provides Data Transfer Objects for the REST API.
package dto

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Binary encodings accepted in BinaryData.
const (
	EncodingBase64 = "base64"
	EncodingHex    = "hex"
	EncodingPEM    = "pem"
)

// BinaryData represents binary data with encoding metadata.
type BinaryData struct {
	// Data is the encoded content.
	Data string `json:"data"`

	// Encoding is "base64" (default), "hex" or "pem".
	Encoding string `json:"encoding,omitempty"`
}

// Base64 wraps b as base64 BinaryData.
func Base64(b []byte) BinaryData {
	return BinaryData{Data: base64.StdEncoding.EncodeToString(b), Encoding: EncodingBase64}
}

// Hex wraps b as hex BinaryData.
func Hex(b []byte) BinaryData {
	return BinaryData{Data: hex.EncodeToString(b), Encoding: EncodingHex}
}

// Decode decodes the binary data based on its encoding. PEM text is
// returned unchanged.
func (b *BinaryData) Decode() ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("binary data is nil")
	}
	switch b.Encoding {
	case EncodingBase64, "":
		return base64.StdEncoding.DecodeString(b.Data)
	case EncodingHex:
		return hex.DecodeString(b.Data)
	case EncodingPEM:
		return []byte(b.Data), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", b.Encoding)
	}
}

// APIError represents a standardized error response.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details provides additional context about the error.
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string   `json:"status"`
	Version    string   `json:"version"`
	Algorithms []string `json:"algorithms,omitempty"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready  bool            `json:"ready"`
	Checks map[string]bool `json:"checks,omitempty"`
}
