package cms

import (
	"bytes"
	"context"
	"encoding/asn1"
	"errors"
	"testing"

	"github.com/remiblancher/cast5-cms/pkg/cast5"
)

var testKey = []byte{
	0x01, 0x23, 0x45, 0x67, 0x12, 0x34, 0x56, 0x78,
	0x23, 0x45, 0x67, 0x89, 0x34, 0x56, 0x78, 0x9a,
}

// testKTRI is a minimal version 0 KeyTransRecipientInfo placeholder.
var testKTRI = asn1.RawValue{FullBytes: []byte{0x30, 0x03, 0x02, 0x01, 0x00}}

func TestF_Envelope_RoundTrip(t *testing.T) {
	contents := [][]byte{
		{},
		[]byte("hello"),
		[]byte("exactly8"),
		bytes.Repeat([]byte("CAST5 "), 1000),
	}

	for _, content := range contents {
		der, err := Envelope(context.Background(), content, &EnvelopeOptions{
			Key:            testKey,
			RecipientInfos: []asn1.RawValue{testKTRI},
		})
		if err != nil {
			t.Fatalf("Envelope failed: %v", err)
		}
		got, err := Open(der, testKey)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("round trip mismatch for %d-byte content", len(content))
		}
	}
}

func TestF_Envelope_WithOriginatorInfo(t *testing.T) {
	issuer := generateTestIssuer(t, "originator")
	gen, err := NewOriginatorInfoGeneratorWithCRLs(
		NewCertificateStore(issuer.Cert),
		NewCRLStore(generateTestCRL(t, issuer, 1)),
	)
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	originator := gen.Generate()

	der, err := Envelope(context.Background(), []byte("payload"), &EnvelopeOptions{
		Key:            testKey,
		RecipientInfos: []asn1.RawValue{testKTRI},
		Originator:     originator,
	})
	if err != nil {
		t.Fatalf("Envelope failed: %v", err)
	}

	env, err := ParseEnvelopedData(der)
	if err != nil {
		t.Fatalf("ParseEnvelopedData failed: %v", err)
	}
	if env.Version != 2 {
		t.Errorf("Version = %d, want 2", env.Version)
	}

	parsed, err := env.OriginatorInformation()
	if err != nil {
		t.Fatalf("OriginatorInformation failed: %v", err)
	}
	if parsed == nil {
		t.Fatal("originatorInfo missing after round trip")
	}
	want, _ := originator.Marshal()
	got, _ := parsed.Marshal()
	if !bytes.Equal(got, want) {
		t.Errorf("OriginatorInfo changed in transit")
	}
}

func TestU_Envelope_VersionWithoutOriginator(t *testing.T) {
	env, err := NewEnvelopedData(context.Background(), []byte("x"), &EnvelopeOptions{
		Key:            testKey,
		RecipientInfos: []asn1.RawValue{testKTRI},
	})
	if err != nil {
		t.Fatalf("NewEnvelopedData failed: %v", err)
	}
	if env.Version != 0 {
		t.Errorf("Version = %d, want 0", env.Version)
	}
	if oi, err := env.OriginatorInformation(); oi != nil || err != nil {
		t.Errorf("OriginatorInformation() = %v, %v; want nil, nil", oi, err)
	}
}

func TestU_EnvelopedVersion(t *testing.T) {
	cert := generateTestCertificate(t, "version")
	plain := NewOriginatorInformation(OriginatorInfo{Certs: []asn1.RawValue{{FullBytes: cert.Raw}}})
	otherCert := NewOriginatorInformation(OriginatorInfo{Certs: []asn1.RawValue{{FullBytes: []byte{0xa3, 0x00}}}})
	otherCRL := NewOriginatorInformation(OriginatorInfo{Certs: []asn1.RawValue{}, CRLs: []asn1.RawValue{{FullBytes: []byte{0xa1, 0x00}}}})
	attrCertV2 := NewOriginatorInformation(OriginatorInfo{Certs: []asn1.RawValue{{FullBytes: []byte{0xa2, 0x00}}}})

	kari := asn1.RawValue{FullBytes: []byte{0xa1, 0x03, 0x02, 0x01, 0x03}}
	pwri := asn1.RawValue{FullBytes: []byte{0xa3, 0x03, 0x02, 0x01, 0x00}}

	tests := []struct {
		name       string
		originator *OriginatorInformation
		ris        []asn1.RawValue
		want       int
	}{
		{"ktri only", nil, []asn1.RawValue{testKTRI}, 0},
		{"originator present", plain, []asn1.RawValue{testKTRI}, 2},
		{"kari", nil, []asn1.RawValue{kari}, 2},
		{"pwri", nil, []asn1.RawValue{testKTRI, pwri}, 3},
		{"v2 attribute certificate", attrCertV2, []asn1.RawValue{testKTRI}, 3},
		{"other certificate format", otherCert, []asn1.RawValue{testKTRI}, 4},
		{"other revocation format", otherCRL, []asn1.RawValue{testKTRI}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &EnvelopedData{RecipientInfos: tt.ris}
			if got := envelopedVersion(env, tt.originator); got != tt.want {
				t.Errorf("envelopedVersion = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestU_Envelope_ExplicitParameters(t *testing.T) {
	params := cast5.NewParameters()
	iv := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	params.InitRaw(iv)

	env, err := NewEnvelopedData(context.Background(), []byte("data"), &EnvelopeOptions{
		Key:    testKey,
		Params: params,
	})
	if err != nil {
		t.Fatalf("NewEnvelopedData failed: %v", err)
	}

	alg := env.EncryptedContentInfo.ContentEncryptionAlgorithm
	if !alg.Algorithm.Equal(cast5.OIDCAST5CBC) {
		t.Errorf("content encryption OID = %v", alg.Algorithm)
	}
	decoded, err := cast5.ParametersFromAlgorithmIdentifier(alg)
	if err != nil {
		t.Fatalf("ParametersFromAlgorithmIdentifier failed: %v", err)
	}
	if !bytes.Equal(decoded.Encoded(), iv) {
		t.Errorf("IV = %x, want %x", decoded.Encoded(), iv)
	}
	if !env.EncryptedContentInfo.ContentType.Equal(OIDData) {
		t.Errorf("content type = %v, want id-data", env.EncryptedContentInfo.ContentType)
	}
}

func TestU_Envelope_Errors(t *testing.T) {
	if _, err := Envelope(context.Background(), []byte("x"), &EnvelopeOptions{Key: []byte("short")}); !errors.Is(err, ErrEncryptFailed) {
		t.Errorf("short key: expected ErrEncryptFailed, got %v", err)
	}
	if _, err := Envelope(context.Background(), []byte("x"), nil); !errors.Is(err, ErrEncryptFailed) {
		t.Errorf("nil options: expected ErrEncryptFailed, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Envelope(ctx, []byte("x"), &EnvelopeOptions{Key: testKey}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: expected context.Canceled, got %v", err)
	}

	if _, err := Envelope(context.Background(), []byte("x"), &EnvelopeOptions{
		Key:    testKey,
		Random: bytes.NewReader([]byte{1, 2}),
	}); !errors.Is(err, cast5.ErrGenerationFailure) {
		t.Errorf("short entropy: expected ErrGenerationFailure, got %v", err)
	}
}

func TestU_Open_Errors(t *testing.T) {
	der, err := Envelope(context.Background(), []byte("secret message"), &EnvelopeOptions{Key: testKey})
	if err != nil {
		t.Fatalf("Envelope failed: %v", err)
	}

	wrongKey := bytes.Repeat([]byte{0x42}, cast5.KeySize)
	if got, err := Open(der, wrongKey); err == nil && bytes.Equal(got, []byte("secret message")) {
		t.Error("wrong key must not recover the plaintext")
	}

	if _, err := Open(der, []byte("short")); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("short key: expected ErrDecryptFailed, got %v", err)
	}

	if _, err := Open([]byte("not DER"), testKey); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("garbage: expected ErrInvalidContent, got %v", err)
	}

	env, err := ParseEnvelopedData(der)
	if err != nil {
		t.Fatalf("ParseEnvelopedData failed: %v", err)
	}
	env.EncryptedContentInfo.EncryptedContent = env.EncryptedContentInfo.EncryptedContent[:5]
	if _, err := env.Decrypt(testKey, nil); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("truncated ciphertext: expected ErrDecryptFailed, got %v", err)
	}

	env.EncryptedContentInfo.ContentEncryptionAlgorithm.Algorithm = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	if _, err := env.Decrypt(testKey, nil); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("foreign algorithm: expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestU_ParseEnvelopedData_WrongContentType(t *testing.T) {
	ci := ContentInfo{
		ContentType: OIDSignedData,
		Content: asn1.RawValue{
			Class:      asn1.ClassContextSpecific,
			Tag:        0,
			IsCompound: true,
			Bytes:      []byte{0x30, 0x00},
		},
	}
	der, err := asn1.Marshal(ci)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := ParseEnvelopedData(der); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("expected ErrInvalidContent, got %v", err)
	}
}

func TestU_PKCS7Padding(t *testing.T) {
	for n := 0; n <= 17; n++ {
		data := bytes.Repeat([]byte{0xab}, n)
		padded := addPKCS7Padding(data, cast5.BlockSize)
		if len(padded)%cast5.BlockSize != 0 || len(padded) <= n {
			t.Fatalf("bad padded length %d for input %d", len(padded), n)
		}
		got, err := removePKCS7Padding(padded, cast5.BlockSize)
		if err != nil || !bytes.Equal(got, data) {
			t.Errorf("unpad(%d) = %x, %v", n, got, err)
		}
	}

	bad := [][]byte{
		{},
		{1, 2, 3, 4, 5, 6, 7, 0},
		{1, 2, 3, 4, 5, 6, 7, 9},
		{1, 2, 3, 4, 5, 6, 2, 3},
	}
	for _, b := range bad {
		if _, err := removePKCS7Padding(b, cast5.BlockSize); err == nil {
			t.Errorf("removePKCS7Padding(%x) should fail", b)
		}
	}
}
