package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	"github.com/remiblancher/cast5-cms/internal/audit"
	"github.com/remiblancher/cast5-cms/pkg/cast5"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

// ParamsService generates and converts CAST5 parameters.
type ParamsService struct {
	registry *provider.Registry
	random   io.Reader
}

// NewParamsService creates a new ParamsService. A nil random uses
// crypto/rand.
func NewParamsService(registry *provider.Registry, random io.Reader) *ParamsService {
	return &ParamsService{registry: registry, random: random}
}

// Generate creates fresh parameters with a random IV.
func (s *ParamsService) Generate(ctx context.Context, req *dto.ParamsGenerateRequest) (*dto.ParamsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = cast5.AlgorithmName
	}
	format := normalizeFormat(req.Format)

	event := audit.NewEvent(audit.EventParamsGenerated, audit.ResultSuccess).
		WithObject(audit.Object{Type: "parameters"}).
		WithContext(audit.Context{Algorithm: algorithm, Format: format})

	resp, err := s.generate(algorithm, format)
	if resp != nil {
		event.Context.KeyLength = resp.KeyLength
	}
	if err := record(event, err); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *ParamsService) generate(algorithm, format string) (*dto.ParamsResponse, error) {
	gen, err := s.registry.LookupGenerator(algorithm, s.random)
	if err != nil {
		return nil, err
	}
	params, err := gen.Generate()
	if err != nil {
		return nil, err
	}
	encoded, err := encodeParams(params, format)
	if err != nil {
		return nil, err
	}
	return describeParams(params, format, encoded), nil
}

// Convert re-encodes parameters from one format to another.
func (s *ParamsService) Convert(ctx context.Context, req *dto.ParamsConvertRequest) (*dto.ParamsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to := normalizeFormat(req.From), normalizeFormat(req.To)
	event := audit.NewEvent(audit.EventParamsConverted, audit.ResultSuccess).
		WithObject(audit.Object{Type: "parameters"}).
		WithContext(audit.Context{Algorithm: cast5.AlgorithmName, Format: from, TargetFormat: to})

	resp, err := s.convert(&req.Input, from, to)
	if resp != nil {
		event.Context.KeyLength = resp.KeyLength
	}
	if err := record(event, err); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *ParamsService) convert(input *dto.BinaryData, from, to string) (*dto.ParamsResponse, error) {
	data, err := input.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: input: %w", ErrInvalidRequest, err)
	}

	params, err := s.registry.LookupParameters(cast5.AlgorithmName)
	if err != nil {
		return nil, err
	}
	if err := params.InitEncoded(data, from); err != nil {
		return nil, err
	}

	encoded, err := encodeParams(params, to)
	if err != nil {
		return nil, err
	}
	return describeParams(params, to, encoded), nil
}

// encodeParams turns the nil result of an unknown format into an error.
func encodeParams(p *cast5.Parameters, format string) ([]byte, error) {
	encoded, err := p.EncodedFormat(format)
	if err != nil {
		return nil, err
	}
	if encoded == nil {
		return nil, cast5.NewParamsError("encode", fmt.Errorf("%w: %q", cast5.ErrUnknownParameterFormat, format))
	}
	return encoded, nil
}

func describeParams(p *cast5.Parameters, format string, encoded []byte) *dto.ParamsResponse {
	return &dto.ParamsResponse{
		Algorithm: cast5.AlgorithmName,
		IV:        hex.EncodeToString(p.IV()),
		KeyLength: p.KeyLength(),
		Format:    format,
		Encoded:   dto.Base64(encoded),
	}
}

func normalizeFormat(format string) string {
	if format == "" {
		return cast5.FormatASN1
	}
	return format
}
