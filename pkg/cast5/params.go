package cast5

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// BlockSize is the CAST5 block size in bytes, and therefore the IV length.
	BlockSize = 8

	// DefaultKeyLength is the key length in bits assumed when the parameters
	// were not decoded from the structured format.
	DefaultKeyLength = 128

	// AlgorithmName is the provider name of the algorithm family.
	AlgorithmName = "CAST5"
)

// Format selectors accepted by InitEncoded and EncodedFormat.
// Selectors are case-sensitive.
const (
	// FormatASN1 selects the DER-encoded CAST5CBCParameters structure.
	FormatASN1 = "ASN.1"

	// FormatASN1Alias is an accepted alias for FormatASN1.
	FormatASN1Alias = "ASN1"

	// FormatRaw selects the bare IV bytes.
	FormatRaw = "RAW"
)

// IsASN1Format reports whether format selects the structured encoding.
// The empty string stands for "no format given" and selects it as well.
func IsASN1Format(format string) bool {
	return format == "" || format == FormatASN1 || format == FormatASN1Alias
}

// Parameters holds a CAST5-CBC initialization vector and key length, and
// converts them to and from their wire representations:
//
//	CAST5CBCParameters ::= SEQUENCE {
//	  iv         OCTET STRING,
//	  keyLength  INTEGER }
//
// The raw format carries only the IV, so a raw round trip resets the key
// length to DefaultKeyLength.
//
// A Parameters value is not safe for concurrent initialization.
type Parameters struct {
	iv        []byte
	keyLength int
}

// NewParameters returns an uninitialized Parameters with the default key length.
func NewParameters() *Parameters {
	return &Parameters{keyLength: DefaultKeyLength}
}

// Init initializes the IV from a typed spec. Only *IVSpec is accepted.
// The key length is left unchanged.
func (p *Parameters) Init(spec ParameterSpec) error {
	ivSpec, ok := spec.(*IVSpec)
	if !ok || ivSpec == nil {
		return NewParamsError("init", fmt.Errorf("%w: IVSpec required to initialise CAST5 parameters, got %T",
			ErrUnsupportedSpecType, spec))
	}
	p.iv = append([]byte{}, ivSpec.IV()...)
	return nil
}

// InitRaw initializes the IV from a copy of b. The key length is left unchanged.
func (p *Parameters) InitRaw(b []byte) {
	p.iv = make([]byte, len(b))
	copy(p.iv, b)
}

// InitEncoded initializes the parameters from b in the given format.
// The structured format replaces both IV and key length; the raw format is
// equivalent to InitRaw. Any other format fails with ErrUnknownParameterFormat.
func (p *Parameters) InitEncoded(b []byte, format string) error {
	if IsASN1Format(format) {
		iv, keyLength, err := parseCBCParameters(b)
		if err != nil {
			return NewParamsError("decode", err)
		}
		p.iv = iv
		p.keyLength = keyLength
		return nil
	}

	if format == FormatRaw {
		p.InitRaw(b)
		return nil
	}

	return NewParamsError("decode", fmt.Errorf("%w: %q", ErrUnknownParameterFormat, format))
}

// Encoded returns a copy of the IV. It panics if the parameters were never
// initialized.
func (p *Parameters) Encoded() []byte {
	iv := p.mustIV()
	out := make([]byte, len(iv))
	copy(out, iv)
	return out
}

// EncodedFormat returns the parameters encoded in the given format.
//
// An unrecognized format yields (nil, nil) rather than an error. Callers
// depend on this, so it is kept even though InitEncoded rejects the same
// selectors. Known formats fail with ErrInvalidIV on uninitialized
// parameters.
func (p *Parameters) EncodedFormat(format string) ([]byte, error) {
	if (IsASN1Format(format) || format == FormatRaw) && !p.Initialized() {
		return nil, NewParamsError("encode", ErrInvalidIV)
	}

	if IsASN1Format(format) {
		der, err := marshalCBCParameters(p.Encoded(), p.keyLength)
		if err != nil {
			return nil, NewParamsError("encode", err)
		}
		return der, nil
	}

	if format == FormatRaw {
		return p.Encoded(), nil
	}

	return nil, nil
}

// ParameterSpec returns a fresh spec of type t wrapping the IV.
func (p *Parameters) ParameterSpec(t SpecType) (ParameterSpec, error) {
	if t == SpecTypeIV {
		return NewIVSpec(p.mustIV()), nil
	}
	return nil, NewParamsError("spec", fmt.Errorf("%w: %q passed to CAST5 parameters", ErrUnsupportedSpecType, t))
}

// IV returns a copy of the IV, or nil if the parameters are uninitialized.
func (p *Parameters) IV() []byte {
	return bytes.Clone(p.iv)
}

// KeyLength returns the key length in bits.
func (p *Parameters) KeyLength() int {
	return p.keyLength
}

// Initialized reports whether an IV has been set.
func (p *Parameters) Initialized() bool {
	return p.iv != nil
}

// String implements fmt.Stringer.
func (p *Parameters) String() string {
	return "CAST5 Parameters"
}

func (p *Parameters) mustIV() []byte {
	if p.iv == nil {
		panic("cast5: parameters used before initialization")
	}
	return p.iv
}

func marshalCBCParameters(iv []byte, keyLength int) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(seq *cryptobyte.Builder) {
		seq.AddASN1OctetString(iv)
		seq.AddASN1Int64(int64(keyLength))
	})
	return b.Bytes()
}

func parseCBCParameters(der []byte) ([]byte, int, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, 0, fmt.Errorf("%w: expected a single SEQUENCE", ErrInvalidEncoding)
	}

	var iv []byte
	if !seq.ReadASN1Bytes(&iv, cbasn1.OCTET_STRING) {
		return nil, 0, fmt.Errorf("%w: malformed iv", ErrInvalidEncoding)
	}

	var keyLength int
	if !seq.ReadASN1Integer(&keyLength) {
		return nil, 0, fmt.Errorf("%w: malformed keyLength", ErrInvalidEncoding)
	}

	if !seq.Empty() {
		return nil, 0, fmt.Errorf("%w: trailing data in parameters", ErrInvalidEncoding)
	}

	return append([]byte{}, iv...), keyLength, nil
}
