package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"join-project/backend/models"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubtaskProvider is the slice of the subtask service the handler needs.
type SubtaskProvider interface {
	Create(ctx context.Context, payload models.SubtaskCreate) (*models.Subtask, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Subtask, error)
	List(ctx context.Context) ([]models.Subtask, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.SubtaskUpdate) (*models.Subtask, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SubtaskHandler struct {
	service SubtaskProvider
}

func NewSubtaskHandler(service SubtaskProvider) *SubtaskHandler {
	return &SubtaskHandler{service: service}
}

func subtaskIDFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	return id, err == nil
}

func (h *SubtaskHandler) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	var payload models.SubtaskCreate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	subtask, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subtask)
}

func (h *SubtaskHandler) GetAllSubtasks(w http.ResponseWriter, r *http.Request) {
	subtasks, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subtasks)
}

func (h *SubtaskHandler) GetSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := subtaskIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Subtask not found.")
		return
	}

	subtask, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subtask)
}

func (h *SubtaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := subtaskIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Subtask not found.")
		return
	}

	var upd models.SubtaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	subtask, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subtask)
}

// DeleteSubtask answers 200 with {"deleted": true}; the confirmation body
// is part of the endpoint's contract.
func (h *SubtaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := subtaskIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Subtask not found.")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
