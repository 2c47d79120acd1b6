package router

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

func newTestRouter(t *testing.T, maxBody int64) http.Handler {
	t.Helper()
	reg, err := provider.NewCAST5()
	if err != nil {
		t.Fatalf("NewCAST5() error = %v", err)
	}
	return New(&Config{
		Version:      "test",
		Registry:     reg,
		Random:       bytes.NewReader(bytes.Repeat([]byte{0x42}, 64)),
		MaxBodyBytes: maxBody,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func generateTestCertificate(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	return der
}

func TestF_Router_Health(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeBody[dto.HealthResponse](t, rec)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
	if len(resp.Algorithms) != 1 || resp.Algorithms[0] != "CAST5" {
		t.Errorf("algorithms = %v, want [CAST5]", resp.Algorithms)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	rec = doJSON(t, h, http.MethodGet, "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}
}

func TestF_Router_OpenAPISpec(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := doJSON(t, h, http.MethodGet, "/api/openapi.yaml", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/originator/build") {
		t.Error("spec does not list the originator endpoint")
	}
}

func TestF_Router_ParamsGenerate(t *testing.T) {
	h := newTestRouter(t, 0)

	tests := []struct {
		name    string
		format  string
		encoded string
	}{
		{"default format", "", "300e0408424242424242424202020080"},
		{"asn1", "ASN.1", "300e0408424242424242424202020080"},
		{"raw", "RAW", "4242424242424242"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/v1/params/generate", dto.ParamsGenerateRequest{Format: tt.format})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
			}
			resp := decodeBody[dto.ParamsResponse](t, rec)
			if resp.KeyLength != 128 {
				t.Errorf("KeyLength = %d, want 128", resp.KeyLength)
			}
			if resp.IV != "4242424242424242" {
				t.Errorf("IV = %s", resp.IV)
			}
			got, err := resp.Encoded.Decode()
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if hex.EncodeToString(got) != tt.encoded {
				t.Errorf("encoded = %x, want %s", got, tt.encoded)
			}
		})
	}
}

func TestF_Router_ParamsConvert(t *testing.T) {
	h := newTestRouter(t, 0)

	asn1DER, _ := hex.DecodeString("300e0408010203040506070802020040")
	req := dto.ParamsConvertRequest{
		Input: dto.Base64(asn1DER),
		From:  "ASN.1",
		To:    "RAW",
	}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/params/convert", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	resp := decodeBody[dto.ParamsResponse](t, rec)
	if resp.IV != "0102030405060708" {
		t.Errorf("IV = %s", resp.IV)
	}
	if resp.KeyLength != 64 {
		t.Errorf("KeyLength = %d, want 64", resp.KeyLength)
	}
	raw, _ := resp.Encoded.Decode()
	if hex.EncodeToString(raw) != "0102030405060708" {
		t.Errorf("encoded = %x", raw)
	}
}

func TestF_Router_ParamsErrors(t *testing.T) {
	h := newTestRouter(t, 0)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name:   "malformed json",
			path:   "/api/v1/params/generate",
			body:   "{not json",
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "unknown algorithm",
			path:   "/api/v1/params/generate",
			body:   dto.ParamsGenerateRequest{Algorithm: "IDEA"},
			status: http.StatusBadRequest,
			code:   "UNKNOWN_ALGORITHM",
		},
		{
			name:   "unknown target format",
			path:   "/api/v1/params/generate",
			body:   dto.ParamsGenerateRequest{Format: "PEM"},
			status: http.StatusBadRequest,
			code:   "UNKNOWN_FORMAT",
		},
		{
			name:   "unknown source format",
			path:   "/api/v1/params/convert",
			body:   dto.ParamsConvertRequest{Input: dto.Hex([]byte{1}), From: "XML"},
			status: http.StatusBadRequest,
			code:   "UNKNOWN_FORMAT",
		},
		{
			name:   "malformed asn1",
			path:   "/api/v1/params/convert",
			body:   dto.ParamsConvertRequest{Input: dto.Hex([]byte{0x30, 0x01}), From: "ASN.1"},
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_ENCODING",
		},
		{
			name:   "bad input encoding",
			path:   "/api/v1/params/convert",
			body:   dto.ParamsConvertRequest{Input: dto.BinaryData{Data: "zz", Encoding: "hex"}},
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			apiErr := decodeBody[dto.APIError](t, rec)
			if apiErr.Code != tt.code {
				t.Errorf("code = %s, want %s", apiErr.Code, tt.code)
			}
		})
	}
}

func TestF_Router_OriginatorBuildAndInfo(t *testing.T) {
	h := newTestRouter(t, 0)

	first := generateTestCertificate(t, "first")
	second := generateTestCertificate(t, "second")
	secondPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: second})

	build := dto.OriginatorBuildRequest{
		Certificates: []dto.BinaryData{
			dto.Base64(first),
			{Data: string(secondPEM), Encoding: dto.EncodingPEM},
		},
	}
	rec := doJSON(t, h, http.MethodPost, "/api/v1/originator/build", build)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	built := decodeBody[dto.OriginatorResponse](t, rec)
	if len(built.Certificates) != 2 {
		t.Fatalf("certificates = %d, want 2", len(built.Certificates))
	}
	if built.Certificates[0].Subject != "CN=first" || built.Certificates[1].Subject != "CN=second" {
		t.Errorf("order = %s, %s", built.Certificates[0].Subject, built.Certificates[1].Subject)
	}
	if built.CRLsPresent {
		t.Error("CRLs present without a crls field in the request")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/originator/info", dto.OriginatorInfoRequest{OriginatorInfo: built.OriginatorInfo})
	if rec.Code != http.StatusOK {
		t.Fatalf("info status = %d, body = %s", rec.Code, rec.Body)
	}
	info := decodeBody[dto.OriginatorResponse](t, rec)
	if info.OriginatorInfo.Data != built.OriginatorInfo.Data {
		t.Error("info did not reproduce the built encoding")
	}
	if len(info.Certificates) != 2 {
		t.Errorf("info certificates = %d, want 2", len(info.Certificates))
	}
}

func TestF_Router_OriginatorEmptyCRLs(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/originator/build", `{"certificates":[],"crls":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	resp := decodeBody[dto.OriginatorResponse](t, rec)
	if !resp.CRLsPresent {
		t.Error("empty crls array should emit the crls field")
	}
	der, _ := base64.StdEncoding.DecodeString(resp.OriginatorInfo.Data)
	if got := hex.EncodeToString(der); got != "3004a000a100" {
		t.Errorf("originator info = %s, want 3004a000a100", got)
	}
}

func TestF_Router_OriginatorErrors(t *testing.T) {
	h := newTestRouter(t, 0)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name: "not a sequence",
			path: "/api/v1/originator/build",
			body: dto.OriginatorBuildRequest{
				Certificates: []dto.BinaryData{dto.Hex([]byte{0x04, 0x01, 0x00})},
			},
			status: http.StatusUnprocessableEntity,
			code:   "NORMALIZATION_ERROR",
		},
		{
			name:   "empty sequence as certificate",
			path:   "/api/v1/originator/build",
			body:   `{"certificates":[{"data":"MAA=","encoding":"base64"}]}`,
			status: http.StatusUnprocessableEntity,
			code:   "NORMALIZATION_ERROR",
		},
		{
			name: "pem without certificate",
			path: "/api/v1/originator/build",
			body: dto.OriginatorBuildRequest{
				Certificates: []dto.BinaryData{{Data: "-----BEGIN FOO-----\nAAAA\n-----END FOO-----\n", Encoding: dto.EncodingPEM}},
			},
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
		{
			name:   "truncated originator info",
			path:   "/api/v1/originator/info",
			body:   dto.OriginatorInfoRequest{OriginatorInfo: dto.Hex([]byte{0x30, 0x05, 0xa0})},
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_CONTENT",
		},
		{
			name:   "originator info with malformed certificate",
			path:   "/api/v1/originator/info",
			body:   dto.OriginatorInfoRequest{OriginatorInfo: dto.Hex([]byte{0x30, 0x04, 0xa0, 0x02, 0x30, 0x00})},
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_CONTENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			apiErr := decodeBody[dto.APIError](t, rec)
			if apiErr.Code != tt.code {
				t.Errorf("code = %s, want %s", apiErr.Code, tt.code)
			}
		})
	}
}

func TestF_Router_BodyLimit(t *testing.T) {
	h := newTestRouter(t, 16)

	body := `{"format":"` + strings.Repeat("A", 64) + `"}`
	rec := doJSON(t, h, http.MethodPost, "/api/v1/params/generate", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}
