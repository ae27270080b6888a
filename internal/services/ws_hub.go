package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteTimeout = 5 * time.Second
	sendQueueSize  = 16
)

// Event types pushed to console observers
const (
	EventState            = "state"
	EventSessionChanged   = "session.changed"
	EventViewChanged      = "view.changed"
	EventEditorOpened     = "editor.opened"
	EventEditorUpdated    = "editor.updated"
	EventEditorClosed     = "editor.closed"
	EventUserSaved        = "user.saved"
	EventUserDeleted      = "user.deleted"
	EventProcessorOpened  = "processor.opened"
	EventProcessorUpdated = "processor.updated"
	EventProcessorClosed  = "processor.closed"
	EventPaymentUpdated   = "payment.updated"
	EventError            = "error"
)

// Event is a state change notification
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// EventPublisher receives every state change made by the coordinator
type EventPublisher interface {
	Publish(event Event)
	// CloseAll disconnects every observer; called when the session ends
	CloseAll()
}

type wsConn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// observer owns one connection. Only its writer goroutine touches conn for writing.
type observer struct {
	conn wsConn
	send chan []byte
}

func (o *observer) write(messageType int, data []byte) error {
	if err := o.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return o.conn.WriteMessage(messageType, data)
}

// writePump drains the send queue until it is closed, then says goodbye
func (o *observer) writePump(h *WSHub, id string) {
	defer o.conn.Close()

	for data := range o.send {
		if err := o.write(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("observer_id", id).Msg("Failed to write to observer")
			h.drop(id)
			return
		}
	}

	_ = o.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// WSHub manages WebSocket connections of console observers.
// Delivery never blocks the caller: each observer has a bounded queue and
// observers that fall behind are disconnected.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*observer
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*observer),
	}
}

// Register registers a new observer connection and returns its ID
func (h *WSHub) Register(conn *websocket.Conn) string {
	return h.register(conn)
}

func (h *WSHub) register(conn wsConn) string {
	o := &observer{conn: conn, send: make(chan []byte, sendQueueSize)}

	h.mu.Lock()
	id := uuid.New().String()
	h.connections[id] = o
	h.mu.Unlock()

	go o.writePump(h, id)

	log.Info().Str("observer_id", id).Msg("WebSocket observer registered")

	return id
}

// Unregister removes an observer. Queued events are flushed before the connection closes.
func (h *WSHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if o, exists := h.connections[id]; exists {
		delete(h.connections, id)
		close(o.send)
		log.Info().Str("observer_id", id).Msg("WebSocket observer unregistered")
	}
}

// drop removes an observer and closes its connection at once
func (h *WSHub) drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if o, exists := h.connections[id]; exists {
		delete(h.connections, id)
		close(o.send)
		o.conn.Close()
		log.Warn().Str("observer_id", id).Msg("WebSocket observer dropped")
	}
}

// SendTo queues an event for a single observer
func (h *WSHub) SendTo(id string, event Event) error {
	data, err := marshalEvent(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	o, exists := h.connections[id]
	queued := false
	if exists {
		select {
		case o.send <- data:
			queued = true
		default:
		}
	}
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("observer %s is not connected", id)
	}
	if !queued {
		h.drop(id)
		return fmt.Errorf("failed to send message: observer %s is not keeping up", id)
	}

	return nil
}

// Publish queues an event for every connected observer
func (h *WSHub) Publish(event Event) {
	data, err := marshalEvent(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event")
		return
	}

	var slow []string
	h.mu.RLock()
	for id, o := range h.connections {
		select {
		case o.send <- data:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		log.Warn().Str("observer_id", id).Str("type", event.Type).Msg("Observer queue full")
		h.drop(id)
	}
}

// CloseAll disconnects every observer after flushing what is already queued
func (h *WSHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, o := range h.connections {
		delete(h.connections, id)
		close(o.send)
	}
}

// Count returns the number of connected observers
func (h *WSHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func marshalEvent(event Event) ([]byte, error) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}
