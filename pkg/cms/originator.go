package cms

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	tagOriginatorCerts = cbasn1.Tag(0).ContextSpecific().Constructed()
	tagOriginatorCRLs  = cbasn1.Tag(1).ContextSpecific().Constructed()
)

// OriginatorInfo represents CMS OriginatorInfo (RFC 5652 Section 6.1).
//
//	OriginatorInfo ::= SEQUENCE {
//	  certs [0] IMPLICIT CertificateSet OPTIONAL,
//	  crls [1] IMPLICIT RevocationInfoChoices OPTIONAL }
//
// A nil slice marks the field as absent; an empty non-nil slice is encoded
// as an empty SET. SET members are written in slice order.
type OriginatorInfo struct {
	Certs []asn1.RawValue
	CRLs  []asn1.RawValue
}

// Marshal encodes the OriginatorInfo SEQUENCE as DER.
func (oi OriginatorInfo) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, oi.addFields)
	return b.Bytes()
}

// ImplicitValue returns the OriginatorInfo as the [0] IMPLICIT field of
// EnvelopedData.
func (oi OriginatorInfo) ImplicitValue() (asn1.RawValue, error) {
	var b cryptobyte.Builder
	oi.addFields(&b)
	body, err := b.Bytes()
	if err != nil {
		return asn1.RawValue{}, err
	}
	return asn1.RawValue{
		Class:      asn1.ClassContextSpecific,
		Tag:        0,
		IsCompound: true,
		Bytes:      body,
	}, nil
}

func (oi OriginatorInfo) addFields(b *cryptobyte.Builder) {
	if oi.Certs != nil {
		b.AddASN1(tagOriginatorCerts, func(set *cryptobyte.Builder) {
			addRawValues(set, oi.Certs)
		})
	}
	if oi.CRLs != nil {
		b.AddASN1(tagOriginatorCRLs, func(set *cryptobyte.Builder) {
			addRawValues(set, oi.CRLs)
		})
	}
}

func addRawValues(b *cryptobyte.Builder, values []asn1.RawValue) {
	for _, v := range values {
		der := v.FullBytes
		if len(der) == 0 {
			var err error
			if der, err = asn1.Marshal(v); err != nil {
				b.SetError(err)
				return
			}
		}
		b.AddBytes(der)
	}
}

// rawDER returns the full encoding of rv, or nil if it cannot be encoded.
func rawDER(rv asn1.RawValue) []byte {
	if len(rv.FullBytes) > 0 {
		return rv.FullBytes
	}
	der, err := asn1.Marshal(rv)
	if err != nil {
		return nil
	}
	return der
}

// classAndTag reads the class and tag number of rv, preferring the
// identifier octet of FullBytes when present.
func classAndTag(rv asn1.RawValue) (class, tag int) {
	if len(rv.FullBytes) > 0 {
		return int(rv.FullBytes[0] >> 6), int(rv.FullBytes[0] & 0x1f)
	}
	return rv.Class, rv.Tag
}

// parseOriginatorInfoFields parses the fields of an OriginatorInfo, i.e.
// the SEQUENCE body or the [0] IMPLICIT contents.
func parseOriginatorInfoFields(body cryptobyte.String) (OriginatorInfo, error) {
	var oi OriginatorInfo

	var certs cryptobyte.String
	var hasCerts bool
	if !body.ReadOptionalASN1(&certs, &hasCerts, tagOriginatorCerts) {
		return OriginatorInfo{}, fmt.Errorf("%w: malformed certs field", ErrInvalidContent)
	}
	if hasCerts {
		values, err := splitElements(certs)
		if err != nil {
			return OriginatorInfo{}, fmt.Errorf("certs: %w", err)
		}
		oi.Certs = values
	}

	var crls cryptobyte.String
	var hasCRLs bool
	if !body.ReadOptionalASN1(&crls, &hasCRLs, tagOriginatorCRLs) {
		return OriginatorInfo{}, fmt.Errorf("%w: malformed crls field", ErrInvalidContent)
	}
	if hasCRLs {
		values, err := splitElements(crls)
		if err != nil {
			return OriginatorInfo{}, fmt.Errorf("crls: %w", err)
		}
		oi.CRLs = values
	}

	if !body.Empty() {
		return OriginatorInfo{}, fmt.Errorf("%w: trailing data in OriginatorInfo", ErrInvalidContent)
	}
	return oi, nil
}

func splitElements(s cryptobyte.String) ([]asn1.RawValue, error) {
	out := make([]asn1.RawValue, 0)
	for !s.Empty() {
		var elem cryptobyte.String
		if !s.ReadAnyASN1Element(&elem, nil) {
			return nil, fmt.Errorf("%w: malformed SET member", ErrInvalidContent)
		}
		var rv asn1.RawValue
		if _, err := asn1.Unmarshal(elem, &rv); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
		}
		out = append(out, rv)
	}
	return out, nil
}

// OriginatorInformation is the immutable result of OriginatorInfoGenerator,
// or of parsing an OriginatorInfo structure.
type OriginatorInformation struct {
	info OriginatorInfo
}

// NewOriginatorInformation wraps a copy of info.
func NewOriginatorInformation(info OriginatorInfo) *OriginatorInformation {
	return &OriginatorInformation{info: cloneInfo(info)}
}

// ParseOriginatorInformation parses a DER OriginatorInfo SEQUENCE.
func ParseOriginatorInformation(der []byte) (*OriginatorInformation, error) {
	input := cryptobyte.String(der)
	var body cryptobyte.String
	if !input.ReadASN1(&body, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, NewCMSError("parse", fmt.Errorf("%w: OriginatorInfo is not a single SEQUENCE", ErrInvalidContent))
	}
	info, err := parseOriginatorInfoFields(body)
	if err != nil {
		return nil, NewCMSError("parse", err)
	}
	return &OriginatorInformation{info: info}, nil
}

// Info returns a copy of the underlying ASN.1 structure.
func (o *OriginatorInformation) Info() OriginatorInfo {
	return cloneInfo(o.info)
}

// Marshal encodes the OriginatorInfo SEQUENCE as DER.
func (o *OriginatorInformation) Marshal() ([]byte, error) {
	return o.info.Marshal()
}

// HasCertificates reports whether the certs field is present.
func (o *OriginatorInformation) HasCertificates() bool {
	return o.info.Certs != nil
}

// HasCRLs reports whether the crls field is present. A present but empty
// field reports true.
func (o *OriginatorInformation) HasCRLs() bool {
	return o.info.CRLs != nil
}

// CertificateStore returns the certificates as a Store, in encoded order.
func (o *OriginatorInformation) CertificateStore() Store {
	return rawStore(o.info.Certs)
}

// CRLStore returns the CRLs as a Store, or nil if the field is absent.
func (o *OriginatorInformation) CRLStore() Store {
	if o.info.CRLs == nil {
		return nil
	}
	return rawStore(o.info.CRLs)
}

// Certificates parses the certificates. Only plain X.509 certificates are
// supported among the CertificateChoices alternatives.
func (o *OriginatorInformation) Certificates() ([]*x509.Certificate, error) {
	certs := make([]*x509.Certificate, 0, len(o.info.Certs))
	for i, rv := range o.info.Certs {
		if class, tag := classAndTag(rv); class != asn1.ClassUniversal || tag != asn1.TagSequence {
			return nil, NewCMSError("parse", fmt.Errorf("%w: certificate %d uses unsupported choice [%d]",
				ErrInvalidContent, i, tag))
		}
		cert, err := x509.ParseCertificate(rawDER(rv))
		if err != nil {
			return nil, NewCMSError("parse", fmt.Errorf("%w: certificate %d: %w", ErrInvalidContent, i, err))
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// CRLs parses the CRLs. It returns nil, nil when the field is absent.
func (o *OriginatorInformation) CRLs() ([]*x509.RevocationList, error) {
	if o.info.CRLs == nil {
		return nil, nil
	}
	crls := make([]*x509.RevocationList, 0, len(o.info.CRLs))
	for i, rv := range o.info.CRLs {
		if class, tag := classAndTag(rv); class != asn1.ClassUniversal || tag != asn1.TagSequence {
			return nil, NewCMSError("parse", fmt.Errorf("%w: CRL %d uses unsupported choice [%d]",
				ErrInvalidContent, i, tag))
		}
		crl, err := x509.ParseRevocationList(rawDER(rv))
		if err != nil {
			return nil, NewCMSError("parse", fmt.Errorf("%w: CRL %d: %w", ErrInvalidContent, i, err))
		}
		crls = append(crls, crl)
	}
	return crls, nil
}

// OriginatorInfoGenerator assembles OriginatorInformation from a
// certificate collection and an optional CRL collection.
type OriginatorInfoGenerator struct {
	certs []asn1.RawValue
	crls  []asn1.RawValue
}

// NewOriginatorInfoGeneratorFromCertificate creates a generator for a single
// originator certificate and no CRLs.
func NewOriginatorInfoGeneratorFromCertificate(cert *x509.Certificate) (*OriginatorInfoGenerator, error) {
	certs, err := CertificatesFromStore(NewCertificateStore(cert))
	if err != nil {
		return nil, err
	}
	return &OriginatorInfoGenerator{certs: certs}, nil
}

// NewOriginatorInfoGenerator creates a generator for the certificates in
// certs and no CRLs.
func NewOriginatorInfoGenerator(certs Store) (*OriginatorInfoGenerator, error) {
	return NewOriginatorInfoGeneratorWithCRLs(certs, nil)
}

// NewOriginatorInfoGeneratorWithCRLs creates a generator for the
// certificates in certs and the CRLs in crls. A nil crls leaves the crls
// field absent; an empty store emits it as an empty SET.
func NewOriginatorInfoGeneratorWithCRLs(certs, crls Store) (*OriginatorInfoGenerator, error) {
	g := &OriginatorInfoGenerator{}

	var err error
	if g.certs, err = CertificatesFromStore(certs); err != nil {
		return nil, err
	}
	if crls != nil {
		if g.crls, err = CRLsFromStore(crls); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Generate returns the assembled OriginatorInformation. It may be called
// repeatedly and always yields an equal result.
func (g *OriginatorInfoGenerator) Generate() *OriginatorInformation {
	return NewOriginatorInformation(OriginatorInfo{Certs: g.certs, CRLs: g.crls})
}

func rawStore(values []asn1.RawValue) CollectionStore {
	s := make(CollectionStore, 0, len(values))
	for _, v := range values {
		s = append(s, v)
	}
	return s
}

func cloneInfo(info OriginatorInfo) OriginatorInfo {
	return OriginatorInfo{Certs: cloneRawValues(info.Certs), CRLs: cloneRawValues(info.CRLs)}
}

// cloneRawValues copies values, keeping nil and empty distinct.
func cloneRawValues(values []asn1.RawValue) []asn1.RawValue {
	if values == nil {
		return nil
	}
	out := make([]asn1.RawValue, len(values))
	copy(out, values)
	return out
}
