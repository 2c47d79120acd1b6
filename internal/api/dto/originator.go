package dto

// OriginatorBuildRequest is the body of POST /api/v1/originator/build.
// Each entry is one certificate or CRL, as base64 DER or PEM.
type OriginatorBuildRequest struct {
	Certificates []BinaryData `json:"certificates"`

	// CRLs left out of the request leave the crls field absent; an empty
	// array emits it empty.
	CRLs *[]BinaryData `json:"crls,omitempty"`
}

// OriginatorInfoRequest is the body of POST /api/v1/originator/info.
type OriginatorInfoRequest struct {
	OriginatorInfo BinaryData `json:"originator_info"`
}

// OriginatorResponse describes an OriginatorInfo structure.
type OriginatorResponse struct {
	OriginatorInfo BinaryData           `json:"originator_info"`
	Certificates   []CertificateSummary `json:"certificates"`
	CRLsPresent    bool                 `json:"crls_present"`
	CRLs           []CRLSummary         `json:"crls,omitempty"`
}

// CertificateSummary identifies a certificate.
type CertificateSummary struct {
	Subject  string `json:"subject"`
	Issuer   string `json:"issuer"`
	Serial   string `json:"serial"`
	NotAfter string `json:"not_after"` // RFC3339
}

// CRLSummary identifies a CRL.
type CRLSummary struct {
	Issuer     string `json:"issuer"`
	Number     string `json:"number,omitempty"`
	ThisUpdate string `json:"this_update"` // RFC3339
	Revoked    int    `json:"revoked"`
}
