package cms

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Store is an ordered source of certificates or CRLs.
//
// Matches returns the entries in a stable order; that order is carried
// through to the emitted SET contents. Entries may be *x509.Certificate,
// *x509.RevocationList, asn1.RawValue or []byte holding one DER structure.
type Store interface {
	Matches() ([]any, error)
}

// CollectionStore is an in-memory Store.
type CollectionStore []any

var _ Store = CollectionStore(nil)

// NewStore returns a Store over entries, in order.
func NewStore(entries ...any) CollectionStore {
	return CollectionStore(append([]any(nil), entries...))
}

// NewCertificateStore returns a Store over certs, in order.
func NewCertificateStore(certs ...*x509.Certificate) CollectionStore {
	s := make(CollectionStore, 0, len(certs))
	for _, c := range certs {
		s = append(s, c)
	}
	return s
}

// NewCRLStore returns a Store over crls, in order.
func NewCRLStore(crls ...*x509.RevocationList) CollectionStore {
	s := make(CollectionStore, 0, len(crls))
	for _, c := range crls {
		s = append(s, c)
	}
	return s
}

// Matches implements Store.
func (s CollectionStore) Matches() ([]any, error) {
	return append([]any(nil), s...), nil
}

// EntryKind selects the structure a store entry is normalized to.
type EntryKind int

const (
	// KindCertificate normalizes entries to Certificate structures.
	KindCertificate EntryKind = iota
	// KindCRL normalizes entries to CertificateList structures.
	KindCRL
)

// String implements fmt.Stringer.
func (k EntryKind) String() string {
	switch k {
	case KindCertificate:
		return "certificate"
	case KindCRL:
		return "crl"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// CertificatesFromStore returns the DER Certificate structures held by s.
func CertificatesFromStore(s Store) ([]asn1.RawValue, error) {
	return NormalizeStore(s, KindCertificate)
}

// CRLsFromStore returns the DER CertificateList structures held by s.
func CRLsFromStore(s Store) ([]asn1.RawValue, error) {
	return NormalizeStore(s, KindCRL)
}

// NormalizeStore converts every entry of s to a DER structure of the given
// kind, preserving store order. The result is never nil.
func NormalizeStore(s Store, kind EntryKind) ([]asn1.RawValue, error) {
	if s == nil {
		return nil, NewCMSError("normalize", fmt.Errorf("%w: nil %s store", ErrNormalization, kind))
	}

	entries, err := s.Matches()
	if err != nil {
		return nil, NewCMSError("normalize", fmt.Errorf("%w: error processing %ss: %w", ErrNormalization, kind, err))
	}

	out := make([]asn1.RawValue, 0, len(entries))
	for i, e := range entries {
		der, err := entryDER(e, kind)
		if err != nil {
			return nil, NewCMSError("normalize", fmt.Errorf("%w: %s entry %d: %w", ErrNormalization, kind, i, err))
		}
		out = append(out, asn1.RawValue{
			Class:      asn1.ClassUniversal,
			Tag:        asn1.TagSequence,
			IsCompound: true,
			FullBytes:  der,
		})
	}
	return out, nil
}

func entryDER(e any, kind EntryKind) ([]byte, error) {
	var der []byte
	parsed := false
	switch v := e.(type) {
	case *x509.Certificate:
		if kind != KindCertificate {
			return nil, fmt.Errorf("got certificate in %s store", kind)
		}
		if v == nil {
			return nil, fmt.Errorf("nil certificate")
		}
		der, parsed = v.Raw, true
	case *x509.RevocationList:
		if kind != KindCRL {
			return nil, fmt.Errorf("got CRL in %s store", kind)
		}
		if v == nil {
			return nil, fmt.Errorf("nil CRL")
		}
		der, parsed = v.Raw, true
	case asn1.RawValue:
		der = v.FullBytes
	case []byte:
		der = v
	default:
		return nil, fmt.Errorf("unsupported entry type %T", e)
	}

	if err := checkSingleSequence(der); err != nil {
		return nil, err
	}
	if !parsed {
		if err := checkStructure(der, kind); err != nil {
			return nil, err
		}
	}
	return append([]byte(nil), der...), nil
}

// checkStructure verifies that raw DER decodes as the structure kind names.
func checkStructure(der []byte, kind EntryKind) error {
	switch kind {
	case KindCertificate:
		if _, err := x509.ParseCertificate(der); err != nil {
			return fmt.Errorf("not a certificate: %w", err)
		}
	case KindCRL:
		if _, err := x509.ParseRevocationList(der); err != nil {
			return fmt.Errorf("not a CRL: %w", err)
		}
	default:
		return fmt.Errorf("unknown entry kind %s", kind)
	}
	return nil
}

// checkSingleSequence verifies der is exactly one SEQUENCE, the outer shape
// of both Certificate and CertificateList.
func checkSingleSequence(der []byte) error {
	if len(der) == 0 {
		return fmt.Errorf("empty encoding")
	}
	input := cryptobyte.String(der)
	var body cryptobyte.String
	if !input.ReadASN1(&body, cbasn1.SEQUENCE) {
		return fmt.Errorf("not a DER SEQUENCE")
	}
	if !input.Empty() {
		return fmt.Errorf("trailing data after SEQUENCE")
	}
	return nil
}
