package handlers

import (
	"net/http"
	"strings"

	"nexus-admin-backend/internal/models"
	"nexus-admin-backend/internal/services"
)

// ViewRequest selects the active view
type ViewRequest struct {
	View string `json:"view"`
}

// ConsoleHandler serves console-wide state
type ConsoleHandler struct {
	coord *services.Coordinator
}

// NewConsoleHandler creates a new console handler
func NewConsoleHandler(coord *services.Coordinator) *ConsoleHandler {
	return &ConsoleHandler{
		coord: coord,
	}
}

// Health handles GET /api/v1/health
func (h *ConsoleHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetState handles GET /api/v1/state
func (h *ConsoleHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.State())
}

// GetDashboard handles GET /api/v1/dashboard
func (h *ConsoleHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.coord.Dashboard()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// SetView handles PUT /api/v1/view
func (h *ConsoleHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	view, err := models.ParseViewType(strings.TrimSpace(req.View))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.coord.Navigate(view); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.coord.State())
}
