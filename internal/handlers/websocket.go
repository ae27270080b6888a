package handlers

import (
	"encoding/json"
	"net/http"

	"nexus-admin-backend/internal/middleware"
	"nexus-admin-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage is a request sent by an observer over the event stream
type WSMessage struct {
	Type string `json:"type"`
}

// WebSocketHandler streams console events to observers
type WebSocketHandler struct {
	hub      *services.WSHub
	coord    *services.Coordinator
	session  middleware.TokenValidator
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. checkOrigin may be nil to allow every origin.
func NewWebSocketHandler(
	hub *services.WSHub,
	coord *services.Coordinator,
	session middleware.TokenValidator,
	checkOrigin func(r *http.Request) bool,
) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketHandler{
		hub:      hub,
		coord:    coord,
		session:  session,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := middleware.ValidateWebSocketToken(token, h.session); err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	id := h.hub.Register(conn)
	defer h.hub.Unregister(id)

	// the session may have ended since the token was checked
	if err := h.session.ValidateJWT(token); err != nil {
		log.Debug().Err(err).Str("observer_id", id).Msg("Session ended during WebSocket handshake")
		return
	}

	h.sendState(id)

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("observer_id", id).Msg("WebSocket error")
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(id, "Invalid message format")
			continue
		}

		switch msg.Type {
		case services.EventState:
			h.sendState(id)
		default:
			h.sendError(id, "Unknown message type")
		}
	}
}

func (h *WebSocketHandler) sendState(id string) {
	event := services.Event{Type: services.EventState, Data: h.coord.State()}
	if err := h.hub.SendTo(id, event); err != nil {
		log.Error().Err(err).Str("observer_id", id).Msg("Failed to send state")
	}
}

func (h *WebSocketHandler) sendError(id, message string) {
	event := services.Event{Type: services.EventError, Message: message}
	if err := h.hub.SendTo(id, event); err != nil {
		log.Error().Err(err).Str("observer_id", id).Msg("Failed to send error")
	}
}
