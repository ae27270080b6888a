package handlers

import (
	"net/http"

	"nexus-admin-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// LoginRequest carries the login form. Its values are not checked.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on login
type LoginResponse struct {
	Token string                `json:"token"`
	State services.ConsoleState `json:"state"`
}

// SessionHandler handles login and logout
type SessionHandler struct {
	coord *services.Coordinator
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(coord *services.Coordinator) *SessionHandler {
	return &SessionHandler{
		coord: coord,
	}
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	// any submitted form is accepted, including one that does not parse
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Debug().Err(err).Msg("Ignoring unreadable login form")
	}

	token, err := h.coord.Login()
	if err != nil {
		log.Error().Err(err).Msg("Failed to login")
		respondError(w, "Failed to login", http.StatusInternalServerError)
		return
	}

	log.Info().Str("email", req.Email).Msg("Console logged in")

	respondJSON(w, http.StatusOK, LoginResponse{Token: token, State: h.coord.State()})
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.coord.Logout()

	log.Info().Msg("Console logged out")

	respondJSON(w, http.StatusOK, h.coord.State())
}
