package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

func TestF_Params_Gen(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantLen int
	}{
		{"asn1", "ASN.1", 16},
		{"raw", "RAW", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestContext(t)

			out, err := executeCommand(rootCmd, "params", "gen", "--format", tt.format, "--out", tc.path("params.bin"))
			assertNoError(t, err)

			if got := len(tc.readFile("params.bin")); got != tt.wantLen {
				t.Errorf("encoded length = %d, want %d", got, tt.wantLen)
			}
			if !strings.Contains(out, "Key length: 128 bits") {
				t.Errorf("output missing key length:\n%s", out)
			}
		})
	}
}

func TestF_Params_Gen_Stdout(t *testing.T) {
	newTestContext(t)

	out, err := executeCommand(rootCmd, "params", "gen")
	assertNoError(t, err)

	der, err := hex.DecodeString(strings.TrimSpace(out))
	assertNoError(t, err)
	if len(der) != 16 || der[0] != 0x30 {
		t.Errorf("stdout = %x, want ASN.1 parameters", der)
	}
}

func TestF_Params_Gen_UnknownFormat(t *testing.T) {
	newTestContext(t)

	_, err := executeCommand(rootCmd, "params", "gen", "--format", "PEM")
	assertError(t, err)
}

func TestF_Params_Convert(t *testing.T) {
	tc := newTestContext(t)

	asn1DER, _ := hex.DecodeString("300e0408a1a2a3a4a5a6a7a802020080")
	in := tc.writeFile("params.der", asn1DER)

	_, err := executeCommand(rootCmd, "params", "convert", "--in", in, "--from", "ASN.1", "--to", "RAW", "--out", tc.path("iv.bin"))
	assertNoError(t, err)

	if got := tc.readFile("iv.bin"); hex.EncodeToString(got) != "a1a2a3a4a5a6a7a8" {
		t.Errorf("raw = %x", got)
	}

	resetFlags(rootCmd)
	_, err = executeCommand(rootCmd, "params", "convert", "--in", tc.path("iv.bin"), "--from", "RAW", "--to", "ASN.1", "--out", tc.path("back.der"))
	assertNoError(t, err)

	if got := tc.readFile("back.der"); !bytes.Equal(got, asn1DER) {
		t.Errorf("round trip = %x, want %x", got, asn1DER)
	}
}

func TestF_Params_Convert_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		from  string
		to    string
	}{
		{"malformed asn1", []byte{0x30, 0x03, 0x04, 0x01}, "ASN.1", "RAW"},
		{"unknown source format", []byte{1, 2, 3, 4, 5, 6, 7, 8}, "XML", "RAW"},
		{"unknown target format", []byte{1, 2, 3, 4, 5, 6, 7, 8}, "RAW", "XML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestContext(t)
			in := tc.writeFile("in.bin", tt.input)

			_, err := executeCommand(rootCmd, "params", "convert", "--in", in, "--from", tt.from, "--to", tt.to)
			assertError(t, err)
		})
	}
}

func TestF_Params_Info(t *testing.T) {
	tc := newTestContext(t)

	asn1DER, _ := hex.DecodeString("300e0408010203040506070802020040")
	in := tc.writeFile("params.der", asn1DER)

	out, err := executeCommand(rootCmd, "params", "info", "--in", in)
	assertNoError(t, err)

	if !strings.Contains(out, "IV:         0102030405060708") {
		t.Errorf("output missing IV:\n%s", out)
	}
	if !strings.Contains(out, "Key length: 64 bits") {
		t.Errorf("output missing key length:\n%s", out)
	}
}

func TestF_Params_Info_MissingFile(t *testing.T) {
	tc := newTestContext(t)

	_, err := executeCommand(rootCmd, "params", "info", "--in", tc.path("missing.der"))
	assertError(t, err)
}
