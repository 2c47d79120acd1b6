// Package handler provides HTTP handlers for the REST API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/remiblancher/cast5-cms/internal/api/dto"
	apierrors "github.com/remiblancher/cast5-cms/internal/api/errors"
)

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	version    string
	algorithms []string
}

// NewHealthHandler creates a new HealthHandler reporting the given
// registered algorithm names.
func NewHealthHandler(version string, algorithms []string) *HealthHandler {
	return &HealthHandler{
		version:    version,
		algorithms: algorithms,
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Algorithms: h.algorithms,
	})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"server":   true,
		"registry": len(h.algorithms) > 0,
	}

	allReady := true
	for _, ready := range checks {
		if !ready {
			allReady = false
			break
		}
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, dto.ReadyResponse{
		Ready:  allReady,
		Checks: checks,
	})
}

// decodeRequest reads a JSON body into v, writing the error response itself
// when the body is unreadable.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		status, apiErr := apierrors.MapError(err)
		if status == http.StatusInternalServerError {
			status, apiErr = http.StatusBadRequest, apierrors.NewBadRequest("Invalid JSON request body")
		}
		respondError(w, status, apiErr)
		return false
	}
	return true
}

// handleServiceError writes the mapped error response for err.
func handleServiceError(w http.ResponseWriter, err error) {
	status, apiErr := apierrors.MapError(err)
	respondError(w, status, apiErr)
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, status int, apiErr *dto.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErr)
}
