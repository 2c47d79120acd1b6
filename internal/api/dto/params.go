package dto

// ParamsGenerateRequest is the body of POST /api/v1/params/generate.
type ParamsGenerateRequest struct {
	// Algorithm is a registered name or OID (default: "CAST5").
	Algorithm string `json:"algorithm,omitempty"`

	// Format of the returned encoding: "ASN.1" (default) or "RAW".
	Format string `json:"format,omitempty"`
}

// ParamsResponse describes a CAST5 parameter set.
type ParamsResponse struct {
	Algorithm string     `json:"algorithm"`
	IV        string     `json:"iv"` // hex
	KeyLength int        `json:"key_length"`
	Format    string     `json:"format"`
	Encoded   BinaryData `json:"encoded"`
}

// ParamsConvertRequest is the body of POST /api/v1/params/convert.
type ParamsConvertRequest struct {
	Input BinaryData `json:"input"`

	// From and To are encoding formats ("ASN.1", "ASN1", "RAW").
	// An empty From or To means ASN.1.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}
