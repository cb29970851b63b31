package handlers

import (
	"encoding/json"
	"net/http"

	"join-project/backend/middleware"
	"join-project/backend/models"
	"join-project/backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileHandler struct {
	service *services.UserService
}

func NewProfileHandler(service *services.UserService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func profileIDFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	return id, err == nil
}

func (h *ProfileHandler) GetAllProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListProfiles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// CreateProfile creates an account through the same path as registration
// and answers with the expanded profile shape.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.ProfileOf(*user))
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Profile not found.")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Profile not found.")
		return
	}

	var upd models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format.")
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// DeleteProfile removes an account. Only the owner may delete their own
// profile; anyone else gets a 403.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Profile not found.")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.UserID != id.Hex() {
		writeMessage(w, http.StatusForbidden, "You can only delete your own profile.")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
