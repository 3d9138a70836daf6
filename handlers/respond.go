package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/CrowderSoup/smartcalendar/database"
)

type apiError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	body := map[string]any{"status": "success"}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, map[string]any{"status": "error", "error": e})
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var ve *database.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: ve.Error(), Problems: ve.Problems})
	case errors.Is(err, database.ErrCorruptDocument):
		log.Error().Err(err).Msg("stored document is corrupt")
		writeError(w, http.StatusInternalServerError, apiError{
			Code:    "CORRUPT_DOCUMENT",
			Message: "stored data could not be read; reset it to start over",
		})
	default:
		log.Error().Err(err).Msg("store operation failed")
		writeError(w, http.StatusInternalServerError, apiError{Code: "INTERNAL", Message: "server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, apiError{Code: "BAD_REQUEST", Message: "invalid request format"})
		return false
	}
	return true
}
