package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is one connected browser session. It owns at most one active
// channel subscription and exactly one notification synchronizer.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	mu         sync.Mutex
	closed     bool
	channelID  string
	channelSub *realtime.Subscription
	updatesSub *realtime.Subscription
	sync       *notify.Synchronizer
}

// ServeWs upgrades the connection and registers the client.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

// startNotifications opens this user's notification feed and routes
// arrivals and effect frames to the socket. Called by the hub on
// register.
func (c *Client) startNotifications() {
	sync := notify.NewSynchronizer(c.hub.notify, c.hub.broker, &clientEffects{client: c}, c.userID)
	sync.Start()
	c.mu.Lock()
	c.sync = sync
	c.mu.Unlock()
}

// teardown cancels every live feed the client holds. Called by the hub
// on unregister.
func (c *Client) teardown() {
	c.mu.Lock()
	channelSub, updatesSub, sync := c.channelSub, c.updatesSub, c.sync
	c.channelSub, c.updatesSub, c.sync = nil, nil, nil
	c.mu.Unlock()
	if channelSub != nil {
		channelSub.Cancel()
	}
	if updatesSub != nil {
		updatesSub.Cancel()
	}
	if sync != nil {
		sync.Stop()
	}
}

// subscribeChannel switches the client's active channel. The previous
// handles are canceled before the new ones open, so the client never
// holds two live feeds for channels.
func (c *Client) subscribeChannel(channelID string) {
	isMember, err := c.hub.store.IsMember(channelID, c.userID)
	if err != nil || !isMember {
		c.sendFrame(Frame{Type: "error", ChannelID: channelID, Error: "not a member"})
		return
	}

	c.mu.Lock()
	prev, prevUpdates := c.channelSub, c.updatesSub
	c.channelSub, c.updatesSub = nil, nil
	c.channelID = channelID
	c.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	if prevUpdates != nil {
		prevUpdates.Cancel()
	}

	sub := c.hub.messages.SubscribeToChannel(channelID, func(m models.Message) {
		if c.activeChannel() != channelID {
			// Buffered event drained after a switch.
			return
		}
		c.sendFrame(Frame{Type: "message", ChannelID: m.ChannelID, Message: &m})
	})
	updates := c.hub.messages.SubscribeToUpdates(channelID, func(e realtime.Event) {
		if c.activeChannel() != channelID {
			return
		}
		switch e.Type {
		case realtime.EventUpdate:
			if full, err := c.hub.store.GetMessage(e.ID); err == nil {
				c.sendFrame(Frame{Type: "message_updated", ChannelID: channelID, Message: full})
			}
		case realtime.EventDelete:
			c.sendFrame(Frame{Type: "message_deleted", ChannelID: channelID, MessageID: e.ID})
		}
	})

	c.mu.Lock()
	if c.channelID != channelID {
		// Switched again while subscribing.
		c.mu.Unlock()
		sub.Cancel()
		updates.Cancel()
		return
	}
	c.channelSub = sub
	c.updatesSub = updates
	c.mu.Unlock()

	c.sendFrame(Frame{Type: "subscribed", ChannelID: channelID})
}

func (c *Client) activeChannel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channelID
}

// sendFrame queues a frame for the write pump, dropping it when the
// buffer is full. Feed goroutines can still deliver after the hub tears
// the client down; the closed flag keeps them off the closed channel.
func (c *Client) sendFrame(f Frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		log.Printf("ws: marshal frame: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// closeSend closes the outbound channel exactly once and marks the
// client dead for any late sendFrame callers.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read: %v", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendFrame(Frame{Type: "error", Error: "malformed frame"})
			continue
		}

		switch in.Type {
		case "subscribe":
			c.subscribeChannel(in.ChannelID)
		case "message":
			if _, err := c.hub.messages.Send(c.userID, in.ChannelID, in.Text, nil); err != nil {
				msg := "send failed"
				if errors.Is(err, store.ErrEmptyMessage) || errors.Is(err, store.ErrForbidden) {
					msg = err.Error()
				}
				c.sendFrame(Frame{Type: "error", ChannelID: in.ChannelID, Error: msg})
			}
		default:
			c.sendFrame(Frame{Type: "error", Error: "unknown frame type"})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
