package sqlstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
)

func (s *SQLStore) InsertNotification(n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO notifications (id, user_id, type, title, body, link, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if _, err := s.db.Exec(query, n.ID, n.UserID, string(n.Type), n.Title, n.Body, n.Link, n.IsRead, n.CreatedAt); err != nil {
		return err
	}
	s.publish(realtime.Event{
		Table: "notifications",
		Type:  realtime.EventInsert,
		ID:    n.ID,
		Scope: map[string]string{"user_id": n.UserID},
		Row:   *n,
	})
	return nil
}

func (s *SQLStore) ListNotifications(userID string, limit int) ([]models.Notification, error) {
	query := s.rebind(`
		SELECT id, user_id, type, title, COALESCE(body, ''), COALESCE(link, ''), is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)
	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *SQLStore) UnreadCount(userID string) (int, error) {
	var count int
	query := s.rebind("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE")
	err := s.db.QueryRow(query, userID).Scan(&count)
	return count, err
}

func (s *SQLStore) MarkNotificationRead(id, userID string) error {
	query := s.rebind("UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?")
	res, err := s.db.Exec(query, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.publish(realtime.Event{
			Table: "notifications",
			Type:  realtime.EventUpdate,
			ID:    id,
			Scope: map[string]string{"user_id": userID},
		})
	}
	return nil
}

func (s *SQLStore) MarkAllNotificationsRead(userID string) error {
	query := s.rebind("UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE")
	if _, err := s.db.Exec(query, userID); err != nil {
		return err
	}
	s.publish(realtime.Event{
		Table: "notifications",
		Type:  realtime.EventUpdate,
		Scope: map[string]string{"user_id": userID},
	})
	return nil
}

func (s *SQLStore) DeleteNotification(id, userID string) error {
	query := s.rebind("DELETE FROM notifications WHERE id = ? AND user_id = ?")
	res, err := s.db.Exec(query, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.publish(realtime.Event{
			Table: "notifications",
			Type:  realtime.EventDelete,
			ID:    id,
			Scope: map[string]string{"user_id": userID},
		})
	}
	return nil
}
