// Package server hosts the HTTP surface of the lookup proxy: one route per
// provider adapter, a shared middleware chain, and the handler glue that
// runs the three-stage pipeline per request.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goscha01/trestle-api-app/internal/config"
	"github.com/goscha01/trestle-api-app/internal/provider"
	"github.com/goscha01/trestle-api-app/internal/upstream"
)

// maxBodyBytes limits the size of incoming request bodies.
const maxBodyBytes = 1 * 1024 * 1024 // 1 MB

// Server is the main HTTP server.
type Server struct {
	Config     *config.Config
	httpServer *http.Server
	Upstream   *upstream.Invoker

	enformion      provider.Adapter
	peopledatalabs provider.Adapter
	trestle        provider.Adapter
	twilio         provider.Adapter
}

// New creates a new server with all routes registered.
func New(cfg *config.Config) *Server {
	s := &Server{
		Config:         cfg,
		Upstream:       &upstream.Invoker{Verbose: cfg.Verbose, Debug: cfg.Debug},
		enformion:      provider.NewEnformion(cfg),
		peopledatalabs: provider.NewPeopleDataLabs(cfg),
		trestle:        provider.NewTrestle(cfg),
		twilio:         provider.NewTwilio(cfg),
	}

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Provider routes
	mux.HandleFunc("GET /api/enformion", s.handleEnformion)
	mux.HandleFunc("GET /api/peopledatalabs", s.handlePeopleDataLabs)
	mux.HandleFunc("GET /api/trestle", s.handleTrestle)
	mux.HandleFunc("GET /api/twilio", s.handleTwilioLookup)
	mux.HandleFunc("POST /api/twilio", s.handleTwilioIdentity)

	// CORS preflight is answered by corsMiddleware before the mux.
	handler := corsMiddleware(requestIDMiddleware(verboseMiddleware(cfg, debugMiddleware(cfg, mux))))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler exposes the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
