package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"podium/internal/domain"
	"podium/internal/httputil"
)

// handleError maps domain errors onto the JSON error envelope. Quota
// and session errors carry their own status codes; anything unknown is
// a 500 and gets logged.
func handleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	default:
		logger.Error("unexpected error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
