package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Root status line; also catches unknown paths and answers them with a JSON 404
	mux.HandleFunc("/", s.app.APIHandler.RootHandler)

	// Upload routes
	mux.Handle("/upload", s.rateLimit(http.HandlerFunc(s.app.UploadHandler.UploadHandler)))        // POST - render, PNG or PDF by page count
	mux.Handle("/upload/pdf", s.rateLimit(http.HandlerFunc(s.app.UploadHandler.PDFUploadHandler))) // POST - render, always PDF
	mux.Handle("/extract", s.rateLimit(http.HandlerFunc(s.app.UploadHandler.ExtractHandler)))      // POST - extract text only

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
