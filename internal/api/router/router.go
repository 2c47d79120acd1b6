// Package router provides HTTP routing configuration using Chi.
package router

import (
	_ "embed"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/remiblancher/cast5-cms/internal/api/handler"
	"github.com/remiblancher/cast5-cms/internal/api/middleware"
	"github.com/remiblancher/cast5-cms/internal/api/service"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Config holds router configuration.
type Config struct {
	Version string

	// Registry resolves algorithm names. Required.
	Registry *provider.Registry

	// Random feeds parameter generation; nil uses crypto/rand.
	Random io.Reader

	// MaxBodyBytes caps request bodies; zero disables the limit.
	MaxBodyBytes int64
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBody(cfg.MaxBodyBytes))

	healthHandler := handler.NewHealthHandler(cfg.Version, cfg.Registry.Names(provider.KindAlgorithmParameters))
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Get("/api/openapi.yaml", serveOpenAPISpec)

	paramsHandler := handler.NewParamsHandler(service.NewParamsService(cfg.Registry, cfg.Random))
	originatorHandler := handler.NewOriginatorHandler(service.NewOriginatorService())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/params", func(r chi.Router) {
			r.Post("/generate", paramsHandler.Generate)
			r.Post("/convert", paramsHandler.Convert)
		})

		r.Route("/originator", func(r chi.Router) {
			r.Post("/build", originatorHandler.Build)
			r.Post("/info", originatorHandler.Info)
		})
	})

	return r
}

// serveOpenAPISpec serves the OpenAPI specification file.
func serveOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}
