package callhub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types carried over a call room connection.
const (
	EventChat     = "chat"
	EventSignal   = "signal"
	EventPresence = "presence"
)

// Hub maintains the set of active clients grouped into call rooms, one room
// per consultation, and fans events out to room members.
type Hub struct {
	// Registered clients organized by consultation ID
	rooms map[int64]map[*Client]bool

	// Channel for inbound events from clients
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex

	logger zerolog.Logger
}

// Event represents an event sent over a call room connection
type Event struct {
	// Type of event: "chat", "signal", "presence"
	Type string `json:"type"`

	// Consultation this event belongs to
	ConsultationID int64 `json:"consultationId"`

	// User who sent the event
	SenderID int64 `json:"senderId"`

	// Event payload: chat text or an opaque signaling blob
	Payload string `json:"payload,omitempty"`

	// Number of participants in the room, set on presence events
	Participants int `json:"participants,omitempty"`

	// Timestamp when the event was sent
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[int64]map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub, handling registrations, departures and broadcasts.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	consultationID := client.consultationID
	if _, ok := h.rooms[consultationID]; !ok {
		h.rooms[consultationID] = make(map[*Client]bool)
	}
	h.rooms[consultationID][client] = true
	participants := len(h.rooms[consultationID])
	h.mu.Unlock()

	h.logger.Info().
		Int64("consultationID", consultationID).
		Int64("userID", client.userID).
		Str("addr", client.addr).
		Msg("Client joined call room")

	h.broadcastEvent(&Event{
		Type:           EventPresence,
		ConsultationID: consultationID,
		SenderID:       client.userID,
		Participants:   participants,
		Timestamp:      time.Now(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	consultationID := client.consultationID
	left := false
	participants := 0
	if room, ok := h.rooms[consultationID]; ok {
		if _, ok := room[client]; ok {
			delete(room, client)
			close(client.send)
			left = true
			participants = len(room)

			if participants == 0 {
				delete(h.rooms, consultationID)
			}
		}
	}
	h.mu.Unlock()

	if !left {
		return
	}

	h.logger.Info().
		Int64("consultationID", consultationID).
		Int64("userID", client.userID).
		Str("addr", client.addr).
		Msg("Client left call room")

	if participants > 0 {
		h.broadcastEvent(&Event{
			Type:           EventPresence,
			ConsultationID: consultationID,
			SenderID:       client.userID,
			Participants:   participants,
			Timestamp:      time.Now(),
		})
	}
}

func (h *Hub) broadcastEvent(event *Event) {
	h.mu.RLock()

	consultationID := event.ConsultationID
	room, ok := h.rooms[consultationID]
	if !ok {
		h.mu.RUnlock()
		h.logger.Debug().
			Int64("consultationID", consultationID).
			Msg("No clients in call room for broadcast")
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.mu.RUnlock()
		h.logger.Error().
			Err(err).
			Int64("consultationID", consultationID).
			Msg("Failed to marshal event for broadcast")
		return
	}

	// Collect slow clients and drop them after releasing the read lock.
	var stalled []*Client
	for client := range room {
		select {
		case client.send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.unregisterClient(client)
	}
}

// BroadcastToRoom sends an event to every connected participant of a
// consultation's call room.
func (h *Hub) BroadcastToRoom(event *Event) {
	h.broadcast <- event
}

// ParticipantCount returns the number of connected clients in a call room.
func (h *Hub) ParticipantCount(consultationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[consultationID]; ok {
		return len(room)
	}
	return 0
}
