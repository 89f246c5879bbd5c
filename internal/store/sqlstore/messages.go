package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store"
)

func (s *SQLStore) InsertMessage(m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	query := s.rebind("INSERT INTO messages (id, channel_id, user_id, text, is_edited, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if _, err := s.db.Exec(query, m.ID, m.ChannelID, m.UserID, m.Text, m.IsEdited, m.CreatedAt, m.UpdatedAt); err != nil {
		return err
	}

	for i := range m.Attachments {
		att := &m.Attachments[i]
		if att.ID == "" {
			att.ID = uuid.NewString()
		}
		att.MessageID = m.ID
		q := s.rebind("INSERT INTO message_attachments (id, message_id, kind, name, file_path, file_size) VALUES (?, ?, ?, ?, ?, ?)")
		if _, err := s.db.Exec(q, att.ID, att.MessageID, string(att.Kind), att.Name, att.FilePath, att.FileSize); err != nil {
			return err
		}
	}

	s.publish(realtime.Event{
		Table: "messages",
		Type:  realtime.EventInsert,
		ID:    m.ID,
		Scope: map[string]string{"channel_id": m.ChannelID},
		Row:   *m,
	})
	return nil
}

const messageColumns = `
	m.id, m.channel_id, m.user_id, u.name, m.text, m.is_edited, m.created_at, m.updated_at
`

// GetMessage returns one message hydrated with its author name and
// attachments.
func (s *SQLStore) GetMessage(id string) (*models.Message, error) {
	query := s.rebind(`
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.id = ?
	`)
	var m models.Message
	err := s.db.QueryRow(query, id).Scan(&m.ID, &m.ChannelID, &m.UserID, &m.UserName, &m.Text, &m.IsEdited, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadAttachments(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns the `limit` messages preceding `offset` from the
// newest end of the channel, re-ordered ascending by creation time for
// display.
func (s *SQLStore) ListMessages(channelID string, limit, offset int) ([]models.Message, error) {
	query := s.rebind(`
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.channel_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?
	`)
	rows, err := s.db.Query(query, channelID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.UserID, &m.UserName, &m.Text, &m.IsEdited, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into ascending order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	for i := range messages {
		if err := s.loadAttachments(&messages[i]); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

func (s *SQLStore) loadAttachments(m *models.Message) error {
	query := s.rebind("SELECT id, message_id, kind, name, file_path, COALESCE(file_size, 0) FROM message_attachments WHERE message_id = ?")
	rows, err := s.db.Query(query, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Attachment
		var kind string
		if err := rows.Scan(&a.ID, &a.MessageID, &kind, &a.Name, &a.FilePath, &a.FileSize); err != nil {
			return err
		}
		a.Kind = models.AttachmentKind(kind)
		m.Attachments = append(m.Attachments, a)
	}
	return rows.Err()
}

// UpdateMessageText sets the text and edited flag, author only.
func (s *SQLStore) UpdateMessageText(id, authorID, text string) (*models.Message, error) {
	query := s.rebind("UPDATE messages SET text = ?, is_edited = TRUE, updated_at = ? WHERE id = ? AND user_id = ?")
	res, err := s.db.Exec(query, text, time.Now().UTC(), id, authorID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, s.messageDenied(id)
	}

	m, err := s.GetMessage(id)
	if err != nil {
		return nil, err
	}
	s.publish(realtime.Event{
		Table: "messages",
		Type:  realtime.EventUpdate,
		ID:    m.ID,
		Scope: map[string]string{"channel_id": m.ChannelID},
		Row:   *m,
	})
	return m, nil
}

// DeleteMessage hard-deletes a message and its attachments, author only.
func (s *SQLStore) DeleteMessage(id, authorID string) error {
	m, err := s.GetMessage(id)
	if err != nil {
		return err
	}
	if m.UserID != authorID {
		return store.ErrForbidden
	}

	query := s.rebind("DELETE FROM message_attachments WHERE message_id = ?")
	if _, err := s.db.Exec(query, id); err != nil {
		return err
	}
	query = s.rebind("DELETE FROM messages WHERE id = ?")
	if _, err := s.db.Exec(query, id); err != nil {
		return err
	}

	s.publish(realtime.Event{
		Table: "messages",
		Type:  realtime.EventDelete,
		ID:    id,
		Scope: map[string]string{"channel_id": m.ChannelID},
		Row:   *m,
	})
	return nil
}

// messageDenied distinguishes a missing message from an authorship
// failure after a zero-row author-scoped write.
func (s *SQLStore) messageDenied(id string) error {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)")
	if err := s.db.QueryRow(query, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return store.ErrForbidden
	}
	return store.ErrNotFound
}
