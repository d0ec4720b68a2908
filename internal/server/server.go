// Package server exposes the configuration generator over HTTP.
//
// Endpoints:
//
//	POST /generate-config  resolve rules and return an assembled config
//	POST /reload-config    atomically reload the rule store and template
//	GET  /health           liveness probe
//	GET  /api/configs      recent generation history
//	GET  /api/usage        aggregate usage counters
//
// The handlers hold no mutable state of their own: each request takes one
// rule-store snapshot and works against it, so reloads never affect
// requests already in flight.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/perfgen/perfgen/internal/assemble"
	"github.com/perfgen/perfgen/internal/detect"
	"github.com/perfgen/perfgen/internal/history"
	"github.com/perfgen/perfgen/internal/ruleset"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config wires the server's collaborators.
type Config struct {
	// Address to listen on (default: :8080).
	Address string

	// Holder owns the active rule-store snapshot.
	Holder *ruleset.Holder

	// History persists generations and usage events. Optional; when nil,
	// nothing is persisted.
	History *history.Store

	// Detector scans domains for ad providers. Optional; when nil,
	// analyze_domain requests resolve without provider tags.
	Detector *detect.Detector

	// Serialization selects newline-joined strings or arrays in the
	// assembled output.
	Serialization assemble.Mode

	Logger zerolog.Logger
}

// Server is the HTTP front end.
type Server struct {
	holder     *ruleset.Holder
	history    *history.Store
	detector   *detect.Detector
	mode       assemble.Mode
	log        zerolog.Logger
	httpServer *http.Server
}

// New creates a server from the given configuration.
func New(cfg Config) *Server {
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.Serialization == "" {
		cfg.Serialization = assemble.ModeNewline
	}

	s := &Server{
		holder:   cfg.Holder,
		history:  cfg.History,
		detector: cfg.Detector,
		mode:     cfg.Serialization,
		log:      cfg.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router. Exposed separately so tests can drive the
// handlers through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/generate-config", s.handleGenerate)
	r.Post("/reload-config", s.handleReload)
	r.Get("/health", s.handleHealth)
	r.Get("/api/configs", s.handleListConfigs)
	r.Get("/api/usage", s.handleUsage)

	return r
}

// ListenAndServe starts serving. Blocks until the listener fails or
// Shutdown is called; a closed-server error is reported as nil.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("address", s.httpServer.Addr).Msg("http server listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs one line per request with status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", clientIP(r)).
			Msg("request")
	})
}

// clientIP extracts the caller's address, honoring the proxy headers the
// original deployment sat behind.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return r.RemoteAddr
}
