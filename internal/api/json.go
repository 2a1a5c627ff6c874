package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/inkwell/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps err to its status and caller-safe message. Server-side
// failures are logged with the full cause.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		slog.Error(op+" failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(apperr.MessageOf(err)))
}
