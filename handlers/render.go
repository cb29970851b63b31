package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"join-project/backend/logging"
	"join-project/backend/models"
	"join-project/backend/services"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Logger.Warnf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response body: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps service errors onto status codes: field-level
// validation problems become a 400 with the field map as body, not-found
// sentinels become 404, anything else is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ve.Fields)
		return
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		writeMessage(w, http.StatusNotFound, "Task not found.")
	case errors.Is(err, services.ErrSubtaskNotFound):
		writeMessage(w, http.StatusNotFound, "Subtask not found.")
	case errors.Is(err, services.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "Profile not found.")
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: Unhandled service error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
	}
}
