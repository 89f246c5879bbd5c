package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

func (s *SQLStore) CreateChannel(ch *models.Channel) error {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now().UTC()
	}
	// NULLIF keeps the unique index on direct_key off group channels.
	query := s.rebind("INSERT INTO channels (id, name, kind, color, direct_key, organization_id, created_by, created_at) VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?)")
	_, err := s.db.Exec(query, ch.ID, ch.Name, string(ch.Kind), ch.Color, ch.DirectKey, ch.OrganizationID, ch.CreatedBy, ch.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

const channelColumns = "id, name, kind, COALESCE(color, ''), COALESCE(direct_key, ''), organization_id, created_by, created_at"

func (s *SQLStore) scanChannel(row *sql.Row) (*models.Channel, error) {
	var ch models.Channel
	var kind string
	err := row.Scan(&ch.ID, &ch.Name, &kind, &ch.Color, &ch.DirectKey, &ch.OrganizationID, &ch.CreatedBy, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ch.Kind = models.ChannelKind(kind)
	return &ch, nil
}

func (s *SQLStore) GetChannel(id string) (*models.Channel, error) {
	query := s.rebind("SELECT " + channelColumns + " FROM channels WHERE id = ?")
	ch, err := s.scanChannel(s.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadMembers(ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *SQLStore) GetDirectChannel(directKey string) (*models.Channel, error) {
	query := s.rebind("SELECT " + channelColumns + " FROM channels WHERE direct_key = ?")
	ch, err := s.scanChannel(s.db.QueryRow(query, directKey))
	if err != nil {
		return nil, err
	}
	if err := s.loadMembers(ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *SQLStore) ListUserChannels(userID string) ([]models.Channel, error) {
	query := s.rebind(`
		SELECT c.id, c.name, c.kind, COALESCE(c.color, ''), COALESCE(c.direct_key, ''), c.organization_id, c.created_by, c.created_at
		FROM channels c
		JOIN channel_members m ON c.id = m.channel_id
		WHERE m.user_id = ?
		ORDER BY c.created_at ASC
	`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		var kind string
		if err := rows.Scan(&ch.ID, &ch.Name, &kind, &ch.Color, &ch.DirectKey, &ch.OrganizationID, &ch.CreatedBy, &ch.CreatedAt); err != nil {
			return nil, err
		}
		ch.Kind = models.ChannelKind(kind)
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range channels {
		if err := s.loadMembers(&channels[i]); err != nil {
			return nil, err
		}
	}
	return channels, nil
}

func (s *SQLStore) loadMembers(ch *models.Channel) error {
	query := s.rebind(`
		SELECT u.id, u.name, u.email, '', u.organization_id, COALESCE(u.avatar_url, ''), COALESCE(u.status, '')
		FROM users u
		JOIN channel_members m ON u.id = m.user_id
		WHERE m.channel_id = ?
		ORDER BY u.name
	`)
	rows, err := s.db.Query(query, ch.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	members, err := collectUsers(rows)
	if err != nil {
		return err
	}
	ch.Members = members
	return nil
}

func (s *SQLStore) AddMember(channelID, userID string) error {
	query := s.rebind("INSERT INTO channel_members (channel_id, user_id) VALUES (?, ?)")
	_, err := s.db.Exec(query, channelID, userID)
	if isUniqueViolation(err) {
		// Already a member, idempotent.
		return nil
	}
	return err
}

func (s *SQLStore) RemoveMember(channelID, userID string) error {
	query := s.rebind("DELETE FROM channel_members WHERE channel_id = ? AND user_id = ?")
	_, err := s.db.Exec(query, channelID, userID)
	return err
}

func (s *SQLStore) IsMember(channelID, userID string) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM channel_members WHERE channel_id = ? AND user_id = ?)")
	err := s.db.QueryRow(query, channelID, userID).Scan(&exists)
	return exists, err
}
