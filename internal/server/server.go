package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/inkwell/internal/app"
)

// Server manages the HTTP server and routes
type Server struct {
	app           *app.App
	router        *http.ServeMux
	server        *http.Server
	uploadLimiter *rate.Limiter
}

// New creates a new HTTP server with the given app
func New(application *app.App) *Server {
	s := &Server{
		app: application,
	}

	// A zero rate leaves uploads unthrottled
	if upload := application.Config.Upload; upload.RatePerSecond > 0 {
		burst := upload.Burst
		if burst < 1 {
			burst = 1
		}
		s.uploadLimiter = rate.NewLimiter(rate.Limit(upload.RatePerSecond), burst)
	}

	// Setup routes
	s.router = s.setupRoutes()

	// Create HTTP server. Rendering long documents takes a while, so writes get more headroom
	// than reads.
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Addr returns the host:port the server listens on
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)
}

// Handler returns the fully wrapped handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.app.Logger.Info().
		Str("address", s.Addr()).
		Str("url", fmt.Sprintf("http://%s", s.Addr())).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
