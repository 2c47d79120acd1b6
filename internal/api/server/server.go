package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/remiblancher/cast5-cms/internal/api/router"
	"github.com/remiblancher/cast5-cms/pkg/provider"
)

// Server runs the REST API.
type Server struct {
	cfg      *Config
	version  string
	registry *provider.Registry
	srv      *http.Server
	out      io.Writer
}

// New creates a new Server.
func New(cfg *Config, version string, registry *provider.Registry) *Server {
	return &Server{
		cfg:      cfg,
		version:  version,
		registry: registry,
		out:      os.Stdout,
	}
}

// Handler builds the routed handler served by the server.
func (s *Server) Handler() http.Handler {
	return router.New(&router.Config{
		Version:      s.version,
		Registry:     s.registry,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	})
}

// Start listens on the configured address and blocks until ctx is done,
// a termination signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on ln until ctx is done or a termination signal
// arrives, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.printStartupInfo(ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if s.cfg.TLSEnabled() {
			errChan <- s.srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			errChan <- s.srv.Serve(ln)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigCtx.Done():
		log.Printf("Shutting down...")
		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Println("Server stopped gracefully")
	return nil
}

func (s *Server) printStartupInfo(addr string) {
	scheme := "http"
	if s.cfg.TLSEnabled() {
		scheme = "https"
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "CAST5 CMS API Server")
	fmt.Fprintln(s.out, "====================")
	fmt.Fprintf(s.out, "  Version:  %s\n", s.version)
	fmt.Fprintf(s.out, "  Address:  %s://%s\n", scheme, addr)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Endpoints:")
	fmt.Fprintln(s.out, "  GET  /health                    - Health check")
	fmt.Fprintln(s.out, "  GET  /ready                     - Readiness check")
	fmt.Fprintln(s.out, "  GET  /api/openapi.yaml          - OpenAPI specification")
	fmt.Fprintln(s.out, "  POST /api/v1/params/generate    - Generate parameters")
	fmt.Fprintln(s.out, "  POST /api/v1/params/convert     - Convert parameter encoding")
	fmt.Fprintln(s.out, "  POST /api/v1/originator/build   - Assemble OriginatorInfo")
	fmt.Fprintln(s.out, "  POST /api/v1/originator/info    - Decode OriginatorInfo")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Use Ctrl+C to stop")
	fmt.Fprintln(s.out)
}
