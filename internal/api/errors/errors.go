// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	"github.com/remiblancher/cast5-cms/internal/api/service"
	"github.com/remiblancher/cast5-cms/pkg/cast5"
	"github.com/remiblancher/cast5-cms/pkg/cms"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

// Error codes for API responses.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnknownAlgorithm = "UNKNOWN_ALGORITHM"
	CodeUnknownFormat    = "UNKNOWN_FORMAT"
	CodeInvalidEncoding  = "INVALID_ENCODING"
	CodeNormalization    = "NORMALIZATION_ERROR"
	CodeInvalidContent   = "INVALID_CONTENT"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeRequestCancelled = "REQUEST_CANCELLED"
	CodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	CodeInternal         = "INTERNAL_ERROR"
)

// MapError maps an internal error to an HTTP status code and APIError.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, newError(CodeRequestTooLarge, err)
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, newError(CodeInvalidRequest, err)
	case errors.Is(err, provider.ErrUnknownAlgorithm):
		return http.StatusBadRequest, newError(CodeUnknownAlgorithm, err)
	case errors.Is(err, cast5.ErrUnknownParameterFormat):
		return http.StatusBadRequest, newError(CodeUnknownFormat, err)
	case errors.Is(err, cast5.ErrUnsupportedSpecType), errors.Is(err, cast5.ErrInvalidKeySize):
		return http.StatusBadRequest, newError(CodeInvalidRequest, err)
	case errors.Is(err, cast5.ErrInvalidEncoding):
		return http.StatusUnprocessableEntity, newError(CodeInvalidEncoding, err)
	case errors.Is(err, cms.ErrNormalization):
		return http.StatusUnprocessableEntity, newError(CodeNormalization, err)
	case errors.Is(err, cms.ErrInvalidContent):
		return http.StatusUnprocessableEntity, newError(CodeInvalidContent, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, newError(CodeRequestCancelled, err)
	}

	// Generation failures are reported with the failing operation only.
	var paramsErr *cast5.ParamsError
	if errors.As(err, &paramsErr) && errors.Is(err, cast5.ErrGenerationFailure) {
		return http.StatusInternalServerError, &dto.APIError{
			Code:    CodeGenerationFailed,
			Message: cast5.ErrGenerationFailure.Error(),
			Details: map[string]string{"operation": paramsErr.Op},
		}
	}

	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}
}

func newError(code string, err error) *dto.APIError {
	return &dto.APIError{Code: code, Message: err.Error()}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}
