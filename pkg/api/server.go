// Package api serves the dump and scrub operations over HTTP.
//
// All routes under /api/v1 require the X-API-Key header. Paths in requests
// and responses are relative to the configured server root; requests that
// name a path outside it are rejected.
//
//	GET  /api/v1/health
//	GET  /api/v1/header?path=<file>
//	POST /api/v1/scrub        {"pairs":[{"source":..., "destination":...}]}
//	GET  /api/v1/journal?since=<RFC 3339>
//	GET  /metrics
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP handler for s
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.requestLogger)

	// Prometheus metrics endpoint (unprotected for scraping)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey))

		r.Get("/health", s.instrument("GET", "/api/v1/health", s.handleHealth))
		r.Get("/header", s.instrument("GET", "/api/v1/header", s.handleHeader))
		r.Post("/scrub", s.instrument("POST", "/api/v1/scrub", s.handleScrub))
		r.Get("/journal", s.instrument("GET", "/api/v1/journal", s.handleJournal))
	})

	return r
}

func (s *Server) instrument(method, endpoint string, h http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return h
	}
	return s.metrics.InstrumentHandler(method, endpoint, h)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// StartServer serves s until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, s *Server) error {
	if s.config.APIKey == "" {
		return errors.New("an API key is required to start the server")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting pqctscrub API server", "addr", addr, "root", s.config.Root)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
