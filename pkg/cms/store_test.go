package cms

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"testing"
)

func TestU_NormalizeStore_PreservesOrder(t *testing.T) {
	c1 := generateTestCertificate(t, "first")
	c2 := generateTestCertificate(t, "second")
	c3 := generateTestCertificate(t, "third")

	got, err := CertificatesFromStore(NewCertificateStore(c2, c3, c1))
	if err != nil {
		t.Fatalf("CertificatesFromStore failed: %v", err)
	}
	want := [][]byte{c2.Raw, c3.Raw, c1.Raw}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i].FullBytes, want[i]) {
			t.Errorf("entry %d out of order", i)
		}
	}
}

func TestU_NormalizeStore_AcceptedEntryTypes(t *testing.T) {
	cert := generateTestCertificate(t, "entry types")

	var rv asn1.RawValue
	if _, err := asn1.Unmarshal(cert.Raw, &rv); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	got, err := CertificatesFromStore(NewStore(cert, rv, cert.Raw))
	if err != nil {
		t.Fatalf("CertificatesFromStore failed: %v", err)
	}
	for i, v := range got {
		if !bytes.Equal(v.FullBytes, cert.Raw) {
			t.Errorf("entry %d: encoding differs from certificate", i)
		}
	}
}

func TestU_NormalizeStore_EmptyStore(t *testing.T) {
	got, err := CRLsFromStore(NewStore())
	if err != nil {
		t.Fatalf("CRLsFromStore failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", got)
	}
}

func TestU_NormalizeStore_Errors(t *testing.T) {
	issuer := generateTestIssuer(t, "errors")
	crl := generateTestCRL(t, issuer, 1)
	storeErr := errors.New("backend unavailable")

	tests := []struct {
		name  string
		store Store
		kind  EntryKind
	}{
		{"nil store", nil, KindCertificate},
		{"matches fails", failingStore{err: storeErr}, KindCertificate},
		{"unsupported type", NewStore("not a certificate"), KindCertificate},
		{"crl in certificate store", NewStore(crl), KindCertificate},
		{"certificate in crl store", NewStore(issuer.Cert), KindCRL},
		{"malformed der", NewStore([]byte{0x30, 0x05, 0x01}), KindCRL},
		{"trailing data", NewStore(append(append([]byte{}, crl.Raw...), 0x00)), KindCRL},
		{"not a sequence", NewStore([]byte{0x04, 0x01, 0x00}), KindCertificate},
		{"empty bytes", NewStore([]byte{}), KindCertificate},
		{"empty sequence as certificate", NewStore([]byte{0x30, 0x00}), KindCertificate},
		{"wrapped integer as certificate", NewStore([]byte{0x30, 0x03, 0x02, 0x01, 0x05}), KindCertificate},
		{"crl der in certificate store", NewStore(crl.Raw), KindCertificate},
		{"certificate raw value in crl store", NewStore(asn1.RawValue{FullBytes: issuer.Cert.Raw}), KindCRL},
		{"empty sequence as crl", NewStore([]byte{0x30, 0x00}), KindCRL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeStore(tt.store, tt.kind)
			if !errors.Is(err, ErrNormalization) {
				t.Fatalf("expected ErrNormalization, got %v", err)
			}
			var cmsErr *CMSError
			if !errors.As(err, &cmsErr) || cmsErr.Op != "normalize" {
				t.Errorf("expected CMSError with Op normalize, got %v", err)
			}
		})
	}

	_, err := NormalizeStore(failingStore{err: storeErr}, KindCRL)
	if !errors.Is(err, storeErr) {
		t.Errorf("store error should be preserved in the chain, got %v", err)
	}
}

func TestU_CollectionStore_MatchesReturnsCopy(t *testing.T) {
	cert := generateTestCertificate(t, "copy")
	s := NewCertificateStore(cert)

	entries, err := s.Matches()
	if err != nil {
		t.Fatalf("Matches failed: %v", err)
	}
	entries[0] = "replaced"

	if _, err := CertificatesFromStore(s); err != nil {
		t.Errorf("store was modified through Matches result: %v", err)
	}
}

func TestU_EntryKind_String(t *testing.T) {
	if KindCertificate.String() != "certificate" || KindCRL.String() != "crl" {
		t.Errorf("unexpected names %q %q", KindCertificate, KindCRL)
	}
	if EntryKind(9).String() != "EntryKind(9)" {
		t.Errorf("unexpected name %q", EntryKind(9))
	}
}
