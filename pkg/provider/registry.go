// Package provider maps algorithm names and OIDs to CAST5 implementations.
//
// A Registry is built once from a fixed list of entries and is read-only
// afterwards, so a single instance can be shared by reference.
package provider

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/remiblancher/cast5-cms/pkg/cast5"
)

// Kind is the category of service an entry provides.
type Kind string

const (
	KindAlgorithmParameters         Kind = "AlgorithmParameters"
	KindAlgorithmParameterGenerator Kind = "AlgorithmParameterGenerator"
	KindCipher                      Kind = "Cipher"
)

var (
	// ErrUnknownAlgorithm indicates no entry is registered under a name.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrDuplicateEntry indicates two entries claim the same name.
	ErrDuplicateEntry = errors.New("duplicate registry entry")

	// ErrInvalidEntry indicates an entry lacks the factory for its kind.
	ErrInvalidEntry = errors.New("invalid registry entry")
)

// Entry registers one implementation under a name and optional aliases.
// Exactly one of the factory fields is used, depending on Kind.
type Entry struct {
	Kind    Kind
	Name    string
	Aliases []string

	NewParameters func() *cast5.Parameters
	NewGenerator  func(lookup cast5.ParameterLookup, random io.Reader) *cast5.ParameterGenerator
	Transform     *cast5.Transform
}

type key struct {
	kind Kind
	name string
}

// Registry resolves names to implementations.
type Registry struct {
	entries map[key]Entry
	aliases map[key]string
}

var _ cast5.ParameterLookup = (*Registry)(nil)

// New builds a registry from entries. Names and aliases must be unique per kind.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[key]Entry, len(entries)),
		aliases: make(map[key]string),
	}

	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		k := key{e.Kind, e.Name}
		if r.taken(k) {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateEntry, e.Kind, e.Name)
		}
		if e.Transform != nil {
			t := *e.Transform
			e.Transform = &t
		}
		r.entries[k] = e

		for _, alias := range e.Aliases {
			ak := key{e.Kind, alias}
			if r.taken(ak) {
				return nil, fmt.Errorf("%w: alias %s.%s", ErrDuplicateEntry, e.Kind, alias)
			}
			r.aliases[ak] = e.Name
		}
	}

	return r, nil
}

// CAST5Entries returns the CAST5 provider table.
func CAST5Entries() []Entry {
	oid := cast5.OIDCAST5CBC.String()
	ecb, cbc := cast5.TransformECB, cast5.TransformCBC

	return []Entry{
		{
			Kind:          KindAlgorithmParameters,
			Name:          cast5.AlgorithmName,
			Aliases:       []string{oid},
			NewParameters: cast5.NewParameters,
		},
		{
			Kind:         KindAlgorithmParameterGenerator,
			Name:         cast5.AlgorithmName,
			Aliases:      []string{oid},
			NewGenerator: cast5.NewParameterGenerator,
		},
		{Kind: KindCipher, Name: cast5.AlgorithmName, Transform: &ecb},
		{Kind: KindCipher, Name: oid, Transform: &cbc},
	}
}

// NewCAST5 returns a registry holding CAST5Entries.
func NewCAST5() (*Registry, error) {
	return New(CAST5Entries()...)
}

// LookupParameters returns a fresh parameters object for name.
func (r *Registry) LookupParameters(name string) (*cast5.Parameters, error) {
	e, err := r.resolve(KindAlgorithmParameters, name)
	if err != nil {
		return nil, err
	}
	return e.NewParameters(), nil
}

// LookupGenerator returns a parameter generator for name. The generator
// resolves its parameter objects through r.
func (r *Registry) LookupGenerator(name string, random io.Reader) (*cast5.ParameterGenerator, error) {
	e, err := r.resolve(KindAlgorithmParameterGenerator, name)
	if err != nil {
		return nil, err
	}
	return e.NewGenerator(r, random), nil
}

// LookupCipher returns the transform registered for name.
func (r *Registry) LookupCipher(name string) (cast5.Transform, error) {
	e, err := r.resolve(KindCipher, name)
	if err != nil {
		return cast5.Transform{}, err
	}
	return *e.Transform, nil
}

// Names returns the sorted primary names registered for kind.
func (r *Registry) Names(kind Kind) []string {
	var names []string
	for k := range r.entries {
		if k.kind == kind {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

func (r *Registry) resolve(kind Kind, name string) (Entry, error) {
	k := key{kind, name}
	if target, ok := r.aliases[k]; ok {
		k.name = target
	}
	e, ok := r.entries[k]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s.%s", ErrUnknownAlgorithm, kind, name)
	}
	return e, nil
}

func (r *Registry) taken(k key) bool {
	if _, ok := r.entries[k]; ok {
		return true
	}
	_, ok := r.aliases[k]
	return ok
}

func (e Entry) validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	var ok bool
	switch e.Kind {
	case KindAlgorithmParameters:
		ok = e.NewParameters != nil
	case KindAlgorithmParameterGenerator:
		ok = e.NewGenerator != nil
	case KindCipher:
		ok = e.Transform != nil
	}
	if !ok {
		return fmt.Errorf("%w: %s.%s has no implementation", ErrInvalidEntry, e.Kind, e.Name)
	}
	return nil
}
