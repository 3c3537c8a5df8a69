package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Emitter table
		r.Route("/emitters", func(r chi.Router) {
			r.Get("/", s.handleListEmitters)
			r.Put("/", s.handleReplaceEmitters)
		})

		// Device registry
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Get("/state", s.handleGetDeviceState)
				r.Post("/send", s.handleSendDevice)
			})
		})

		// Whole-installation export/import
		r.Route("/config", func(r chi.Router) {
			r.Get("/", s.handleExportConfig)
			r.Post("/", s.handleImportConfig)
		})

		// Direct transmission testing
		r.Post("/raw", s.handleRawSend)

		// WebSocket state feed
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"devices":  s.registry.Count(),
		"emitters": s.emitters.Len(),
	})
}
