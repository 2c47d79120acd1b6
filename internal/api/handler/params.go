package handler

import (
	"net/http"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	"github.com/remiblancher/cast5-cms/internal/api/service"
)

// ParamsHandler handles CAST5 parameter HTTP requests.
type ParamsHandler struct {
	service *service.ParamsService
}

// NewParamsHandler creates a new ParamsHandler.
func NewParamsHandler(paramsService *service.ParamsService) *ParamsHandler {
	return &ParamsHandler{service: paramsService}
}

// Generate handles POST /api/v1/params/generate
func (h *ParamsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.ParamsGenerateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	resp, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Convert handles POST /api/v1/params/convert
func (h *ParamsHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req dto.ParamsConvertRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	resp, err := h.service.Convert(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
