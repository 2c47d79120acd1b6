package cast5

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// OIDCAST5CBC identifies CAST5 in CBC mode (RFC 2984).
var OIDCAST5CBC = asn1.ObjectIdentifier{1, 2, 840, 113533, 7, 66, 10}

// AlgorithmIdentifier returns a content-encryption AlgorithmIdentifier
// carrying the structured parameters.
func (p *Parameters) AlgorithmIdentifier() (pkix.AlgorithmIdentifier, error) {
	der, err := p.EncodedFormat(FormatASN1)
	if err != nil {
		return pkix.AlgorithmIdentifier{}, err
	}
	return pkix.AlgorithmIdentifier{
		Algorithm:  OIDCAST5CBC,
		Parameters: asn1.RawValue{FullBytes: der},
	}, nil
}

// ParametersFromAlgorithmIdentifier decodes the parameters of a CAST5-CBC
// AlgorithmIdentifier.
func ParametersFromAlgorithmIdentifier(ai pkix.AlgorithmIdentifier) (*Parameters, error) {
	if !ai.Algorithm.Equal(OIDCAST5CBC) {
		return nil, NewParamsError("decode", fmt.Errorf("%w: algorithm %v is not CAST5-CBC", ErrInvalidEncoding, ai.Algorithm))
	}
	if len(ai.Parameters.FullBytes) == 0 {
		return nil, NewParamsError("decode", fmt.Errorf("%w: missing parameters", ErrInvalidEncoding))
	}

	p := NewParameters()
	if err := p.InitEncoded(ai.Parameters.FullBytes, FormatASN1); err != nil {
		return nil, err
	}
	return p, nil
}
