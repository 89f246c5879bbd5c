package chat

import (
	"fmt"
	"log"
	"strings"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store"
)

// DefaultPageSize is the message page size used when the caller passes
// no limit.
const DefaultPageSize = 50

// fanOutBodyLimit caps the notification body at this many runes of the
// message text.
const fanOutBodyLimit = 50

// Messages is the message store: history, sends with notification
// fan-out, author-only mutation, and live channel subscriptions.
type Messages struct {
	store  store.Store
	broker *realtime.Broker
}

func NewMessages(st store.Store, broker *realtime.Broker) *Messages {
	return &Messages{store: st, broker: broker}
}

// GetMessages returns the `limit` messages preceding `offset` from the
// newest end of the channel, in ascending creation order.
func (m *Messages) GetMessages(channelID string, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return m.store.ListMessages(channelID, limit, offset)
}

// Send persists a message with its attachments and fans a notification
// out to every other channel member. Fan-out is best effort: its
// failures are logged and never fail the send.
func (m *Messages) Send(senderID, channelID, text string, attachments []models.Attachment) (*models.Message, error) {
	if senderID == "" {
		return nil, store.ErrNotAuthenticated
	}
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, store.ErrEmptyMessage
	}

	isMember, err := m.store.IsMember(channelID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, store.ErrForbidden
	}

	msg := &models.Message{
		ChannelID:   channelID,
		UserID:      senderID,
		Text:        text,
		Attachments: attachments,
	}
	if err := m.store.InsertMessage(msg); err != nil {
		return nil, err
	}

	m.fanOut(msg)

	return m.store.GetMessage(msg.ID)
}

// fanOut creates one `message` notification per other channel member.
func (m *Messages) fanOut(msg *models.Message) {
	ch, err := m.store.GetChannel(msg.ChannelID)
	if err != nil {
		log.Printf("chat: fan-out skipped, channel lookup failed: %v", err)
		return
	}
	sender, err := m.store.GetUserByID(msg.UserID)
	if err != nil {
		log.Printf("chat: fan-out skipped, sender lookup failed: %v", err)
		return
	}

	title := sender.Name
	if ch.Kind == models.ChannelGroup {
		title = fmt.Sprintf("%s in #%s", sender.Name, ch.Name)
	}
	body := msg.Text
	if body == "" && len(msg.Attachments) > 0 {
		body = msg.Attachments[0].Name
	}

	for _, member := range ch.Members {
		if member.ID == msg.UserID {
			continue
		}
		n := &models.Notification{
			UserID: member.ID,
			Type:   models.NotifyMessage,
			Title:  title,
			Body:   truncate(body, fanOutBodyLimit),
			Link:   "chat",
		}
		if err := m.store.InsertNotification(n); err != nil {
			log.Printf("chat: fan-out to %s failed: %v", member.ID, err)
		}
	}
}

// Edit replaces the text of the author's own message and marks it
// edited.
func (m *Messages) Edit(authorID, messageID, text string) (*models.Message, error) {
	if authorID == "" {
		return nil, store.ErrNotAuthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, store.ErrEmptyMessage
	}
	return m.store.UpdateMessageText(messageID, authorID, text)
}

// Delete removes the author's own message.
func (m *Messages) Delete(authorID, messageID string) error {
	if authorID == "" {
		return store.ErrNotAuthenticated
	}
	return m.store.DeleteMessage(messageID, authorID)
}

// SubscribeToChannel opens one live feed of inserts for the channel. The
// raw event only carries the row as written; the handler receives the
// re-fetched, fully hydrated message. Cancel the returned handle before
// subscribing to another channel.
func (m *Messages) SubscribeToChannel(channelID string, onInsert func(models.Message)) *realtime.Subscription {
	sub := m.broker.Subscribe("messages", realtime.Filter{"channel_id": channelID})
	go func() {
		for e := range sub.C {
			if e.Type != realtime.EventInsert {
				continue
			}
			full, err := m.store.GetMessage(e.ID)
			if err != nil {
				// Row already deleted or backend hiccup; the next poll
				// reconciles.
				log.Printf("chat: hydrate %s failed: %v", e.ID, err)
				continue
			}
			onInsert(*full)
		}
	}()
	return sub
}

// SubscribeToUpdates opens a feed of edit and delete events for the
// channel, delivered raw.
func (m *Messages) SubscribeToUpdates(channelID string, onEvent func(realtime.Event)) *realtime.Subscription {
	sub := m.broker.Subscribe("messages", realtime.Filter{"channel_id": channelID})
	go func() {
		for e := range sub.C {
			if e.Type == realtime.EventInsert {
				continue
			}
			onEvent(e)
		}
	}()
	return sub
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
