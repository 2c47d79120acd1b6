package main

import (
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/remiblancher/cast5-cms/pkg/cast5"
)

// readInput reads a DER file. A PEM file is accepted when its first block
// has type pemType.
func readInput(path, pemType string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if pemType == "" {
		return data, nil
	}
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != pemType {
			return nil, fmt.Errorf("%s: expected PEM block %q, got %q", path, pemType, block.Type)
		}
		return block.Bytes, nil
	}
	return data, nil
}

// writeOutput writes data to path, or as hex to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(w, hex.EncodeToString(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// loadKey returns the content-encryption key from a hex string or from a
// file holding hex text or raw key bytes.
func loadKey(keyHex, keyFile string) ([]byte, error) {
	switch {
	case keyHex != "" && keyFile != "":
		return nil, fmt.Errorf("--key and --key-file are mutually exclusive")
	case keyHex != "":
		return decodeKey([]byte(keyHex))
	case keyFile != "":
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		if len(data) == cast5.KeySize {
			return data, nil
		}
		return decodeKey(data)
	default:
		return nil, fmt.Errorf("a key is required (--key or --key-file)")
	}
}

func decodeKey(text []byte) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(string(text)))
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != cast5.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", cast5.KeySize, len(key))
	}
	return key, nil
}

// auditError prefers the operation error over the audit error.
func auditError(opErr, auditErr error) error {
	if opErr != nil {
		return opErr
	}
	return auditErr
}

func reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
