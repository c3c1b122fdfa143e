// Package server exposes schema validation and coercion over HTTP.
//
// Routes:
//
//	GET  /v1/healthz   liveness probe
//	POST /v1/validate  validate an inline table against an inline schema
//	POST /v1/coerce    coerce an inline table to an inline schema
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/FrameCheck/internal/logger"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RequestTimeout bounds request handling. Zero means 30s.
	RequestTimeout time.Duration

	// Log is the logger used for request logging. Nil means a default
	// JSON logger.
	Log *logger.Logger
}

// Server routes validation and coercion requests.
type Server struct {
	router chi.Router
	log    *logger.Logger
}

// New builds a Server with its routes mounted.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.New(nil)
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	s := &Server{
		router: chi.NewRouter(),
		log:    log,
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(timeout))
	s.router.Use(s.requestLogger)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealthz)
		r.Post("/validate", s.handleValidate)
		r.Post("/coerce", s.handleCoerce)
	})

	return s
}

// Handler returns the router for mounting in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs one line per request with method, path, status and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.InfoWith("request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
		})
	})
}
