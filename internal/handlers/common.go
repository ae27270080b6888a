package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"nexus-admin-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondServiceError translates a console error into an HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: verr.Error(), Fields: verr.Fields})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Console operation failed")
		respondError(w, "Internal server error", status)
		return
	}
	respondError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrModalOpen),
		errors.Is(err, models.ErrEditorClosed),
		errors.Is(err, models.ErrProcessorClosed),
		errors.Is(err, models.ErrStaleReceipt):
		return http.StatusConflict
	case errors.Is(err, models.ErrReceiptTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrUnsupportedReceipt):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrInvalidField),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrUnknownView),
		errors.Is(err, models.ErrEmptyReceipt):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}
