package service

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	"github.com/remiblancher/cast5-cms/internal/audit"
	"github.com/remiblancher/cast5-cms/internal/config"
	"github.com/remiblancher/cast5-cms/pkg/cms"
)

// OriginatorService assembles and inspects CMS OriginatorInfo structures.
type OriginatorService struct{}

// NewOriginatorService creates a new OriginatorService.
func NewOriginatorService() *OriginatorService {
	return &OriginatorService{}
}

// Build assembles an OriginatorInfo from the request's certificates and
// CRLs, in request order.
func (s *OriginatorService) Build(ctx context.Context, req *dto.OriginatorBuildRequest) (*dto.OriginatorResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	event := audit.NewEvent(audit.EventOriginatorAssembled, audit.ResultSuccess).
		WithObject(audit.Object{Type: "originator_info"})

	resp, err := s.build(req)
	if resp != nil {
		event.Context.Certificates = len(resp.Certificates)
		if resp.CRLsPresent {
			n := len(resp.CRLs)
			event.Context.CRLs = &n
		}
	}
	if err := record(event, err); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *OriginatorService) build(req *dto.OriginatorBuildRequest) (*dto.OriginatorResponse, error) {
	certs, err := decodeEntries(req.Certificates, config.ParseCertificates)
	if err != nil {
		return nil, fmt.Errorf("%w: certificates: %w", ErrInvalidRequest, err)
	}

	var gen *cms.OriginatorInfoGenerator
	if req.CRLs == nil {
		gen, err = cms.NewOriginatorInfoGenerator(certs)
	} else {
		crls, derr := decodeEntries(*req.CRLs, config.ParseCRLs)
		if derr != nil {
			return nil, fmt.Errorf("%w: crls: %w", ErrInvalidRequest, derr)
		}
		gen, err = cms.NewOriginatorInfoGeneratorWithCRLs(certs, crls)
	}
	if err != nil {
		return nil, err
	}
	return describeOriginator(gen.Generate())
}

// Info decodes an OriginatorInfo structure.
func (s *OriginatorService) Info(ctx context.Context, req *dto.OriginatorInfoRequest) (*dto.OriginatorResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	der, err := req.OriginatorInfo.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: originator_info: %w", ErrInvalidRequest, err)
	}
	oi, err := cms.ParseOriginatorInformation(der)
	if err != nil {
		return nil, err
	}
	return describeOriginator(oi)
}

// decodeEntries turns request entries into store entries. PEM entries may
// hold several blocks; other entries are passed through as DER.
func decodeEntries[T any](entries []dto.BinaryData, parsePEM func([]byte) ([]T, error)) (cms.CollectionStore, error) {
	store := cms.NewStore()
	for i := range entries {
		data, err := entries[i].Decode()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if entries[i].Encoding != dto.EncodingPEM {
			store = append(store, data)
			continue
		}
		parsed, err := parsePEM(data)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		for _, p := range parsed {
			store = append(store, p)
		}
	}
	return store, nil
}

func describeOriginator(oi *cms.OriginatorInformation) (*dto.OriginatorResponse, error) {
	der, err := oi.Marshal()
	if err != nil {
		return nil, err
	}
	certs, err := oi.Certificates()
	if err != nil {
		return nil, err
	}
	crls, err := oi.CRLs()
	if err != nil {
		return nil, err
	}

	resp := &dto.OriginatorResponse{
		OriginatorInfo: dto.Base64(der),
		Certificates:   make([]dto.CertificateSummary, 0, len(certs)),
		CRLsPresent:    oi.HasCRLs(),
	}
	for _, c := range certs {
		resp.Certificates = append(resp.Certificates, summarizeCertificate(c))
	}
	for _, c := range crls {
		resp.CRLs = append(resp.CRLs, summarizeCRL(c))
	}
	return resp, nil
}

func summarizeCertificate(c *x509.Certificate) dto.CertificateSummary {
	return dto.CertificateSummary{
		Subject:  c.Subject.String(),
		Issuer:   c.Issuer.String(),
		Serial:   hex.EncodeToString(c.SerialNumber.Bytes()),
		NotAfter: c.NotAfter.UTC().Format(time.RFC3339),
	}
}

func summarizeCRL(c *x509.RevocationList) dto.CRLSummary {
	s := dto.CRLSummary{
		Issuer:     c.Issuer.String(),
		ThisUpdate: c.ThisUpdate.UTC().Format(time.RFC3339),
		Revoked:    len(c.RevokedCertificateEntries),
	}
	if c.Number != nil {
		s.Number = c.Number.String()
	}
	return s
}
