// Package ws delivers live updates to connected browsers: channel
// message feeds, notification arrivals and their side-effect frames
// (sound, badge, alert).
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/rdevries/kantoor/internal/chat"
	"github.com/rdevries/kantoor/internal/metrics"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store"
)

// Frame is the envelope for everything sent to a client.
type Frame struct {
	Type         string               `json:"type"`
	ChannelID    string               `json:"channel_id,omitempty"`
	Message      *models.Message      `json:"message,omitempty"`
	MessageID    string               `json:"message_id,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	Unread       int                  `json:"unread,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// inbound is what clients send: subscribe to a channel or post a
// message into the active channel.
type inbound struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

type Hub struct {
	// Registered clients. Guarded by mu: SendToUser runs on service
	// goroutines while Run mutates the set.
	mu      sync.RWMutex
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	store    store.Store
	broker   *realtime.Broker
	messages *chat.Messages
	notify   *notify.Service
}

func NewHub(st store.Store, broker *realtime.Broker, messages *chat.Messages, notifySvc *notify.Service) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      st,
		broker:     broker,
		messages:   messages,
		notify:     notifySvc,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.ConnectedClients.Inc()
			client.startNotifications()
		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			if ok {
				metrics.ConnectedClients.Dec()
				client.teardown()
				client.closeSend()
			}
		}
	}
}

// SendToUser pushes a frame to every connected client of a user.
// Returns false when none is connected.
func (h *Hub) SendToUser(userID string, frame Frame) bool {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("ws: marshal frame: %v", err)
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := false
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- payload:
			sent = true
		default:
			// Slow client, drop the frame rather than block the hub.
		}
	}
	return sent
}
