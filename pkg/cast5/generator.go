package cast5

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ParameterLookup resolves an algorithm name to a fresh, uninitialized
// parameters object. *provider.Registry implements it.
type ParameterLookup interface {
	LookupParameters(algorithm string) (*Parameters, error)
}

// ParameterGenerator produces CAST5 parameters with a random IV.
type ParameterGenerator struct {
	lookup ParameterLookup
	random io.Reader
}

// NewParameterGenerator creates a generator that obtains parameter objects
// from lookup. If random is nil, crypto/rand.Reader is used on first Generate.
func NewParameterGenerator(lookup ParameterLookup, random io.Reader) *ParameterGenerator {
	return &ParameterGenerator{lookup: lookup, random: random}
}

// InitWithSpec always fails: CAST5 parameter generation takes no input
// beyond randomness, whatever spec is supplied (including nil).
func (g *ParameterGenerator) InitWithSpec(spec ParameterSpec, random io.Reader) error {
	return NewParamsError("generate", fmt.Errorf("%w: no supported parameter spec for CAST5 parameter generation",
		ErrUnsupportedOperation))
}

// Generate returns new parameters initialized with BlockSize random bytes.
func (g *ParameterGenerator) Generate() (*Parameters, error) {
	if g.random == nil {
		g.random = rand.Reader
	}

	iv := make([]byte, BlockSize)
	if _, err := io.ReadFull(g.random, iv); err != nil {
		return nil, generationError(fmt.Errorf("failed to read IV: %w", err))
	}

	if g.lookup == nil {
		return nil, generationError(errors.New("no parameter provider configured"))
	}

	params, err := g.lookup.LookupParameters(AlgorithmName)
	if err != nil {
		return nil, generationError(err)
	}
	if params == nil {
		return nil, generationError(fmt.Errorf("provider returned no parameters for %s", AlgorithmName))
	}

	if err := params.Init(NewIVSpec(iv)); err != nil {
		return nil, generationError(err)
	}

	return params, nil
}

func generationError(err error) error {
	return NewParamsError("generate", fmt.Errorf("%w: %w", ErrGenerationFailure, err))
}
