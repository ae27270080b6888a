package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// OpenEditorRequest opens the user editor; an empty UserID starts a new user
type OpenEditorRequest struct {
	UserID string `json:"user_id"`
}

// EditorUpdateRequest is one field edit. Section is basic, social or promo.
type EditorUpdateRequest struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   string `json:"value"`
}

// DeleteUserResponse reports whether a user was removed
type DeleteUserResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	coord *services.Coordinator
}

// NewUserHandler creates a new user handler
func NewUserHandler(coord *services.Coordinator) *UserHandler {
	return &UserHandler{
		coord: coord,
	}
}

// ListUsers handles GET /api/v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.coord.ListUsers()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// OpenEditor handles POST /api/v1/editor
func (h *UserHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var req OpenEditorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	draft, err := h.coord.OpenUserEditor(req.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// UpdateEditor handles PATCH /api/v1/editor
func (h *UserHandler) UpdateEditor(w http.ResponseWriter, r *http.Request) {
	var req EditorUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd, err := req.toFieldUpdate()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	draft, err := h.coord.ApplyEditorUpdate(cmd)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// SaveEditor handles POST /api/v1/editor/save
func (h *UserHandler) SaveEditor(w http.ResponseWriter, r *http.Request) {
	user, err := h.coord.SaveUserEditor()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// CloseEditor handles DELETE /api/v1/editor
func (h *UserHandler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	h.coord.CloseUserEditor()
	respondJSON(w, http.StatusOK, h.coord.State())
}

// DeleteUser handles DELETE /api/v1/users/{user_id}?confirm=true.
// Without confirm=true nothing is removed and the confirmation prompt is returned.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	deleted, err := h.coord.DeleteUser(userID, services.ConfirmFunc(func(string) bool {
		return confirmed
	}))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Debug().
		Str("user_id", userID).
		Bool("confirmed", confirmed).
		Bool("deleted", deleted).
		Msg("Delete user requested")

	respondJSON(w, http.StatusOK, DeleteUserResponse{Deleted: deleted, Message: services.DeleteConfirmMessage})
}

func (req EditorUpdateRequest) toFieldUpdate() (services.FieldUpdate, error) {
	switch req.Section {
	case "basic":
		return services.UpdateBasicInfo{Field: services.BasicField(req.Field), Value: req.Value}, nil
	case "social":
		return services.UpdateSocial{Platform: services.SocialPlatform(req.Field), Value: req.Value}, nil
	case "promo":
		return services.UpdatePromo{Field: services.PromoField(req.Field), Value: req.Value}, nil
	default:
		return nil, fmt.Errorf("%w: unknown section %q", models.ErrInvalidField, req.Section)
	}
}
