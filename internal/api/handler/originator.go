package handler

import (
	"net/http"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	"github.com/remiblancher/cast5-cms/internal/api/service"
)

// OriginatorHandler handles OriginatorInfo HTTP requests.
type OriginatorHandler struct {
	service *service.OriginatorService
}

// NewOriginatorHandler creates a new OriginatorHandler.
func NewOriginatorHandler(originatorService *service.OriginatorService) *OriginatorHandler {
	return &OriginatorHandler{service: originatorService}
}

// Build handles POST /api/v1/originator/build
func (h *OriginatorHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req dto.OriginatorBuildRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	resp, err := h.service.Build(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Info handles POST /api/v1/originator/info
func (h *OriginatorHandler) Info(w http.ResponseWriter, r *http.Request) {
	var req dto.OriginatorInfoRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	resp, err := h.service.Info(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
