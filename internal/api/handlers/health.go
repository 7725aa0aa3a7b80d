package handlers

import (
	"log/slog"
	"net/http"
)

// Health returns a minimal liveness check endpoint.
func Health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, logger, http.MethodGet) {
			return
		}
		writeJSON(w, r, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
