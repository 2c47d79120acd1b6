package cast5

import "bytes"

// SpecType names a kind of typed parameter specification.
type SpecType string

// SpecTypeIV identifies IVSpec. It is the only spec type CAST5 parameters
// can be initialized from or converted to.
const SpecTypeIV SpecType = "iv"

// ParameterSpec is a typed, in-memory description of algorithm parameters.
type ParameterSpec interface {
	SpecType() SpecType
}

// IVSpec carries an initialization vector.
type IVSpec struct {
	iv []byte
}

var _ ParameterSpec = (*IVSpec)(nil)

// NewIVSpec returns an IVSpec holding a copy of iv.
func NewIVSpec(iv []byte) *IVSpec {
	return &IVSpec{iv: bytes.Clone(iv)}
}

// SpecType implements ParameterSpec.
func (s *IVSpec) SpecType() SpecType { return SpecTypeIV }

// IV returns a copy of the initialization vector.
func (s *IVSpec) IV() []byte {
	return bytes.Clone(s.iv)
}
