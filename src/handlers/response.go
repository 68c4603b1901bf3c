package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"expense-tracker-server/src/service"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, msg any) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Server Error")
}

// writeServiceError maps service errors onto status codes. Anything it does
// not recognise is logged and reported as a generic server error.
func writeServiceError(w http.ResponseWriter, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Messages)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "No transaction found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "Transaction was modified by another request")
	default:
		log.Error().Err(err).Msgf("Failed to %s", action)
		writeServerError(w)
	}
}
