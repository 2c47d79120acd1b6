package cms

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

// testIssuer is a self-signed CA able to sign CRLs.
type testIssuer struct {
	Cert *x509.Certificate
	Key  *ecdsa.PrivateKey
}

// generateTestIssuer creates a self-signed ECDSA P-256 CA certificate.
func generateTestIssuer(t *testing.T, cn string) *testIssuer {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{"Test Org"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}
	return &testIssuer{Cert: cert, Key: priv}
}

// generateTestCertificate creates a self-signed certificate for testing.
func generateTestCertificate(t *testing.T, cn string) *x509.Certificate {
	t.Helper()
	return generateTestIssuer(t, cn).Cert
}

// generateTestCRL creates an empty CRL signed by issuer.
func generateTestCRL(t *testing.T, issuer *testIssuer, number int64) *x509.RevocationList {
	t.Helper()

	template := &x509.RevocationList{
		Number:     big.NewInt(number),
		ThisUpdate: time.Now().Add(-time.Hour),
		NextUpdate: time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateRevocationList(rand.Reader, template, issuer.Cert, issuer.Key)
	if err != nil {
		t.Fatalf("Failed to create CRL: %v", err)
	}
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		t.Fatalf("Failed to parse CRL: %v", err)
	}
	return crl
}

// failingStore is a Store whose Matches always fails.
type failingStore struct {
	err error
}

func (s failingStore) Matches() ([]any, error) {
	return nil, s.err
}
