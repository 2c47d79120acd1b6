package config

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// PEM block types accepted by the loaders.
const (
	pemTypeCertificate = "CERTIFICATE"
	pemTypeCRL         = "X509 CRL"
)

// LoadCertificates reads every certificate from a PEM bundle or a single
// DER file.
func LoadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	certs, err := ParseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return certs, nil
}

// ParseCertificates parses PEM-encoded certificates, or one DER
// certificate when data is not PEM.
func ParseCertificates(data []byte) ([]*x509.Certificate, error) {
	blocks, isPEM := pemBlocks(data, pemTypeCertificate)
	if !isPEM {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		return []*x509.Certificate{cert}, nil
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("no %s block found", pemTypeCertificate)
	}

	certs := make([]*x509.Certificate, 0, len(blocks))
	for i, der := range blocks {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate %d: %w", i, err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// LoadCRLs reads every CRL from a PEM bundle or a single DER file.
func LoadCRLs(path string) ([]*x509.RevocationList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CRL file: %w", err)
	}
	crls, err := ParseCRLs(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return crls, nil
}

// ParseCRLs parses PEM-encoded CRLs, or one DER CRL when data is not PEM.
func ParseCRLs(data []byte) ([]*x509.RevocationList, error) {
	blocks, isPEM := pemBlocks(data, pemTypeCRL)
	if !isPEM {
		crl, err := x509.ParseRevocationList(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CRL: %w", err)
		}
		return []*x509.RevocationList{crl}, nil
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("no %s block found", pemTypeCRL)
	}

	crls := make([]*x509.RevocationList, 0, len(blocks))
	for i, der := range blocks {
		crl, err := x509.ParseRevocationList(der)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CRL %d: %w", i, err)
		}
		crls = append(crls, crl)
	}
	return crls, nil
}

// pemBlocks returns the contents of every PEM block of type blockType, in
// file order. isPEM is false when data holds no PEM block at all.
func pemBlocks(data []byte, blockType string) (blocks [][]byte, isPEM bool) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		isPEM = true
		if block.Type == blockType {
			blocks = append(blocks, block.Bytes)
		}
	}
	return blocks, isPEM
}
