package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/platform/obs"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorContext(r.Context(), "encode failed",
			"req_id", obs.RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, msg string) {
	writeJSON(w, r, logger, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error onto a status code. Validation
// messages and provider failures are returned to the client; anything else
// is logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	switch {
	case domain.IsValidation(err):
		var ve *domain.ValidationError
		errors.As(err, &ve)
		writeError(w, r, logger, http.StatusBadRequest, ve.Reason)
	case domain.IsProvider(err) && errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(r.Context(), op+" failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, logger, http.StatusGatewayTimeout, err.Error())
	case domain.IsProvider(err):
		logger.WarnContext(r.Context(), op+" failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, logger, http.StatusBadGateway, err.Error())
	default:
		logger.ErrorContext(r.Context(), op+" failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, logger, http.StatusInternalServerError, "internal server error")
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, logger *slog.Logger, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, logger, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
