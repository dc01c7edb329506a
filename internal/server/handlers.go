package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "forecast",
	}

	if err := s.systemHandlers.checkDatabases(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		response["status"] = "degraded"
		response["error"] = err.Error()
	}

	writeJSON(s.log, w, status, response)
}

// writeJSON writes a JSON response
func writeJSON(log zerolog.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
