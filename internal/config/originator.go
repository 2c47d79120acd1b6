// Package config loads cast5cms configuration files.
//
// Two YAML documents are supported: originator profiles, which name the
// certificate and CRL files making up an OriginatorInfo, and server
// configuration files for "cast5cms serve".
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/cast5-cms/pkg/cms"
)

// OriginatorProfile describes the contents of an OriginatorInfo.
//
//	name: alice
//	certs:
//	  - alice.pem
//	  - intermediate.pem
//	crls: []          # present but empty; omit the key to leave crls absent
type OriginatorProfile struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Certs       []string  `yaml:"certs"`
	CRLs        *[]string `yaml:"crls,omitempty"`

	// baseDir resolves relative paths. Set by LoadOriginatorProfile.
	baseDir string
}

// LoadOriginatorProfile loads a profile from a YAML file. Relative
// certificate and CRL paths are resolved against the file's directory.
func LoadOriginatorProfile(path string) (*OriginatorProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read originator profile: %w", err)
	}

	p, err := ParseOriginatorProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.baseDir = filepath.Dir(path)
	return p, nil
}

// ParseOriginatorProfile parses a profile from YAML bytes.
func ParseOriginatorProfile(data []byte) (*OriginatorProfile, error) {
	var p OriginatorProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the profile names usable files.
func (p *OriginatorProfile) Validate() error {
	for i, c := range p.Certs {
		if c == "" {
			return fmt.Errorf("certs[%d]: empty path", i)
		}
	}
	if p.CRLs != nil {
		for i, c := range *p.CRLs {
			if c == "" {
				return fmt.Errorf("crls[%d]: empty path", i)
			}
		}
	}
	return nil
}

// HasCRLs reports whether the profile sets the crls key.
func (p *OriginatorProfile) HasCRLs() bool {
	return p.CRLs != nil
}

// Stores loads the referenced files into certificate and CRL stores, in
// profile order. crls is nil when the profile leaves CRLs absent.
func (p *OriginatorProfile) Stores() (certs, crls cms.Store, err error) {
	certStore := cms.NewStore()
	for _, path := range p.Certs {
		loaded, err := LoadCertificates(p.resolve(path))
		if err != nil {
			return nil, nil, err
		}
		for _, c := range loaded {
			certStore = append(certStore, c)
		}
	}

	if p.CRLs == nil {
		return certStore, nil, nil
	}

	crlStore := cms.NewStore()
	for _, path := range *p.CRLs {
		loaded, err := LoadCRLs(p.resolve(path))
		if err != nil {
			return nil, nil, err
		}
		for _, c := range loaded {
			crlStore = append(crlStore, c)
		}
	}
	return certStore, crlStore, nil
}

// Generator builds an OriginatorInfoGenerator from the profile.
func (p *OriginatorProfile) Generator() (*cms.OriginatorInfoGenerator, error) {
	certs, crls, err := p.Stores()
	if err != nil {
		return nil, err
	}
	return cms.NewOriginatorInfoGeneratorWithCRLs(certs, crls)
}

func (p *OriginatorProfile) resolve(path string) string {
	if filepath.IsAbs(path) || p.baseDir == "" {
		return path
	}
	return filepath.Join(p.baseDir, path)
}
