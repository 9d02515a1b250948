package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/xtralabs/xtra-server/internal/errors"
)

// errorResponse is the JSON error body sent to clients.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps a domain error to an HTTP status and a generic client
// message. No raw internal detail crosses the boundary; full context goes
// to the server log.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	switch appErr.Code {
	case apperrors.CodeInvalidInput:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: appErr.Message})
	case apperrors.CodeAlreadyExists:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "User already exists"})
	case apperrors.CodeUnauthorized:
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: appErr.Message})
	case apperrors.CodeNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	case apperrors.CodeUpstream:
		logger.Error("upstream error", "error", appErr)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: appErr.Message})
	default:
		logger.Error("internal error", "error", appErr)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
