package cms

import (
	"bytes"
	"context"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/remiblancher/cast5-cms/pkg/cast5"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

// ContentInfo represents the top-level CMS structure (RFC 5652 Section 3).
type ContentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"explicit,tag:0"`
}

// Attribute represents a CMS attribute.
type Attribute struct {
	Type   asn1.ObjectIdentifier
	Values []asn1.RawValue `asn1:"set"`
}

// EnvelopedData represents CMS EnvelopedData (RFC 5652 Section 6).
//
//	EnvelopedData ::= SEQUENCE {
//	  version CMSVersion,
//	  originatorInfo [0] IMPLICIT OriginatorInfo OPTIONAL,
//	  recipientInfos RecipientInfos,
//	  encryptedContentInfo EncryptedContentInfo,
//	  unprotectedAttrs [1] IMPLICIT UnprotectedAttributes OPTIONAL }
//
// RecipientInfos are carried opaquely.
type EnvelopedData struct {
	Version              int
	OriginatorInfo       asn1.RawValue   `asn1:"optional,tag:0"`
	RecipientInfos       []asn1.RawValue `asn1:"set"`
	EncryptedContentInfo EncryptedContentInfo
	UnprotectedAttrs     []Attribute `asn1:"optional,set,tag:1"`
}

// EncryptedContentInfo contains the encrypted content (RFC 5652 Section 6.1).
//
//	EncryptedContentInfo ::= SEQUENCE {
//	  contentType ContentType,
//	  contentEncryptionAlgorithm ContentEncryptionAlgorithmIdentifier,
//	  encryptedContent [0] IMPLICIT EncryptedContent OPTIONAL }
type EncryptedContentInfo struct {
	ContentType                asn1.ObjectIdentifier
	ContentEncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedContent           []byte `asn1:"optional,tag:0"`
}

// SetOriginatorInformation stores o in the originatorInfo field. A nil o
// removes the field.
func (env *EnvelopedData) SetOriginatorInformation(o *OriginatorInformation) error {
	if o == nil {
		env.OriginatorInfo = asn1.RawValue{}
		return nil
	}
	rv, err := o.info.ImplicitValue()
	if err != nil {
		return NewCMSError("envelop", fmt.Errorf("failed to encode OriginatorInfo: %w", err))
	}
	env.OriginatorInfo = rv
	return nil
}

// OriginatorInformation returns the decoded originatorInfo field, or nil
// when it is absent.
func (env *EnvelopedData) OriginatorInformation() (*OriginatorInformation, error) {
	if !env.hasOriginatorInfo() {
		return nil, nil
	}
	info, err := parseOriginatorInfoFields(cryptobyte.String(env.OriginatorInfo.Bytes))
	if err != nil {
		return nil, NewCMSError("parse", err)
	}
	return &OriginatorInformation{info: info}, nil
}

func (env *EnvelopedData) hasOriginatorInfo() bool {
	return env.OriginatorInfo.Class == asn1.ClassContextSpecific && env.OriginatorInfo.Tag == 0
}

// Marshal encodes env wrapped in a ContentInfo.
func (env *EnvelopedData) Marshal() ([]byte, error) {
	envBytes, err := asn1.Marshal(*env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal EnvelopedData: %w", err)
	}

	ci := ContentInfo{
		ContentType: OIDEnvelopedData,
		Content: asn1.RawValue{
			Class:      asn1.ClassContextSpecific,
			Tag:        0,
			IsCompound: true,
			Bytes:      envBytes,
		},
	}
	return asn1.Marshal(ci)
}

// ParseEnvelopedData parses a CMS EnvelopedData structure from raw DER bytes.
// The input should be a complete ContentInfo containing EnvelopedData.
func ParseEnvelopedData(data []byte) (*EnvelopedData, error) {
	var ci ContentInfo
	rest, err := asn1.Unmarshal(data, &ci)
	if err != nil {
		return nil, NewCMSError("parse", fmt.Errorf("%w: failed to parse ContentInfo: %w", ErrInvalidContent, err))
	}
	if len(rest) > 0 {
		return nil, NewCMSError("parse", fmt.Errorf("%w: trailing data after ContentInfo", ErrInvalidContent))
	}

	if !ci.ContentType.Equal(OIDEnvelopedData) {
		return nil, NewCMSError("parse", fmt.Errorf("%w: not an EnvelopedData structure, got OID %v",
			ErrInvalidContent, ci.ContentType))
	}

	var env EnvelopedData
	if _, err := asn1.Unmarshal(ci.Content.Bytes, &env); err != nil {
		return nil, NewCMSError("parse", fmt.Errorf("%w: failed to parse EnvelopedData: %w", ErrInvalidContent, err))
	}
	return &env, nil
}

// EnvelopeOptions configures Envelope.
type EnvelopeOptions struct {
	// Key is the 16-byte CAST5 content-encryption key.
	Key []byte

	// Params carries the IV. Generated from Random when nil.
	Params *cast5.Parameters

	// Random is the entropy source for IV generation (default: crypto/rand).
	Random io.Reader

	// Registry resolves the CAST5 implementations (default: provider.NewCAST5).
	Registry *provider.Registry

	// RecipientInfos are pre-encoded RecipientInfo values.
	RecipientInfos []asn1.RawValue

	// Originator is written to the originatorInfo field when set.
	Originator *OriginatorInformation

	// ContentType of the plaintext (default: id-data).
	ContentType asn1.ObjectIdentifier
}

// Envelope encrypts content with CAST5-CBC and returns a DER ContentInfo
// holding the EnvelopedData.
func Envelope(ctx context.Context, content []byte, opts *EnvelopeOptions) ([]byte, error) {
	env, err := NewEnvelopedData(ctx, content, opts)
	if err != nil {
		return nil, err
	}
	der, err := env.Marshal()
	if err != nil {
		return nil, NewCMSError("envelop", err)
	}
	return der, nil
}

// NewEnvelopedData encrypts content with CAST5-CBC and returns the
// EnvelopedData structure.
func NewEnvelopedData(ctx context.Context, content []byte, opts *EnvelopeOptions) (*EnvelopedData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &EnvelopeOptions{}
	}

	reg := opts.Registry
	if reg == nil {
		var err error
		if reg, err = provider.NewCAST5(); err != nil {
			return nil, NewCMSError("envelop", err)
		}
	}

	params := opts.Params
	if params == nil {
		gen, err := reg.LookupGenerator(cast5.AlgorithmName, opts.Random)
		if err != nil {
			return nil, NewCMSError("envelop", err)
		}
		if params, err = gen.Generate(); err != nil {
			return nil, NewCMSError("envelop", err)
		}
	}

	contentType := opts.ContentType
	if contentType == nil {
		contentType = OIDData
	}

	encrypted, algID, err := encryptCAST5CBC(reg, content, opts.Key, params)
	if err != nil {
		return nil, NewCMSError("envelop", fmt.Errorf("%w: %w", ErrEncryptFailed, err))
	}

	env := &EnvelopedData{
		RecipientInfos: append([]asn1.RawValue{}, opts.RecipientInfos...),
		EncryptedContentInfo: EncryptedContentInfo{
			ContentType:                contentType,
			ContentEncryptionAlgorithm: algID,
			EncryptedContent:           encrypted,
		},
	}
	if err := env.SetOriginatorInformation(opts.Originator); err != nil {
		return nil, err
	}
	env.Version = envelopedVersion(env, opts.Originator)
	return env, nil
}

// Open decrypts the content of a DER ContentInfo holding CAST5-CBC
// EnvelopedData.
func Open(der, key []byte) ([]byte, error) {
	env, err := ParseEnvelopedData(der)
	if err != nil {
		return nil, err
	}
	return env.Decrypt(key, nil)
}

// Decrypt decrypts the encrypted content with key. A nil reg uses
// provider.NewCAST5.
func (env *EnvelopedData) Decrypt(key []byte, reg *provider.Registry) ([]byte, error) {
	if reg == nil {
		var err error
		if reg, err = provider.NewCAST5(); err != nil {
			return nil, NewCMSError("open", err)
		}
	}

	eci := env.EncryptedContentInfo
	transform, err := reg.LookupCipher(eci.ContentEncryptionAlgorithm.Algorithm.String())
	if err != nil || !transform.NeedsIV() {
		return nil, NewCMSError("open", fmt.Errorf("%w: content encryption %v",
			ErrUnsupportedAlgorithm, eci.ContentEncryptionAlgorithm.Algorithm))
	}
	params, err := cast5.ParametersFromAlgorithmIdentifier(eci.ContentEncryptionAlgorithm)
	if err != nil {
		return nil, NewCMSError("open", fmt.Errorf("%w: %w", ErrInvalidContent, err))
	}

	ciphertext := eci.EncryptedContent
	if len(ciphertext) == 0 || len(ciphertext)%cast5.BlockSize != 0 {
		return nil, NewCMSError("open", fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d",
			ErrDecryptFailed, len(ciphertext), cast5.BlockSize))
	}

	mode, err := transform.NewDecrypter(key, params)
	if err != nil {
		return nil, NewCMSError("open", fmt.Errorf("%w: %w", ErrDecryptFailed, err))
	}
	plaintext := make([]byte, len(ciphertext))
	mode.CryptBlocks(plaintext, ciphertext)

	unpadded, err := removePKCS7Padding(plaintext, cast5.BlockSize)
	if err != nil {
		return nil, NewCMSError("open", fmt.Errorf("%w: %w", ErrDecryptFailed, err))
	}
	return unpadded, nil
}

func encryptCAST5CBC(reg *provider.Registry, data, key []byte, params *cast5.Parameters) ([]byte, pkix.AlgorithmIdentifier, error) {
	transform, err := reg.LookupCipher(cast5.OIDCAST5CBC.String())
	if err != nil {
		return nil, pkix.AlgorithmIdentifier{}, err
	}
	mode, err := transform.NewEncrypter(key, params)
	if err != nil {
		return nil, pkix.AlgorithmIdentifier{}, err
	}

	padded := addPKCS7Padding(data, cast5.BlockSize)
	ciphertext := make([]byte, len(padded))
	mode.CryptBlocks(ciphertext, padded)

	algID, err := params.AlgorithmIdentifier()
	if err != nil {
		return nil, pkix.AlgorithmIdentifier{}, err
	}
	return ciphertext, algID, nil
}

func addPKCS7Padding(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func removePKCS7Padding(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("invalid padding")
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, errors.New("invalid padding")
	}
	return data[:len(data)-padLen], nil
}

// envelopedVersion computes the CMSVersion per RFC 5652 Section 6.1.
func envelopedVersion(env *EnvelopedData, originator *OriginatorInformation) int {
	if originator != nil {
		for _, c := range originator.info.Certs {
			if isContextTag(c, 3) {
				return 4
			}
		}
		for _, c := range originator.info.CRLs {
			if isContextTag(c, 1) {
				return 4
			}
		}
		for _, c := range originator.info.Certs {
			if isContextTag(c, 2) {
				return 3
			}
		}
	}

	allV0 := true
	for _, ri := range env.RecipientInfos {
		if isContextTag(ri, 3) || isContextTag(ri, 4) {
			return 3
		}
		if recipientInfoVersion(ri) != 0 {
			allV0 = false
		}
	}

	if originator == nil && len(env.UnprotectedAttrs) == 0 && allV0 {
		return 0
	}
	return 2
}

func isContextTag(rv asn1.RawValue, tag int) bool {
	class, t := classAndTag(rv)
	return class == asn1.ClassContextSpecific && t == tag
}

// recipientInfoVersion returns the version of a RecipientInfo, or -1 when
// it cannot be read.
func recipientInfoVersion(ri asn1.RawValue) int {
	input := cryptobyte.String(rawDER(ri))
	var body cryptobyte.String
	var tag cbasn1.Tag
	if !input.ReadAnyASN1(&body, &tag) {
		return -1
	}
	if tag.Constructed() != tag {
		return -1
	}
	var version int
	if !body.ReadASN1Integer(&version) {
		return -1
	}
	return version
}
