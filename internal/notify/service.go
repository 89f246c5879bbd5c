// Package notify maintains each user's notification list: persistence,
// unread accounting, the live per-identity feed and the best-effort
// side-effect pipeline (sound, badge, native alert).
package notify

import (
	"fmt"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

// DefaultLimit is how many notifications a list fetch returns.
const DefaultLimit = 50

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// List returns the user's notifications, newest first.
func (s *Service) List(userID string, limit int) ([]models.Notification, error) {
	if userID == "" {
		return nil, store.ErrNotAuthenticated
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.store.ListNotifications(userID, limit)
}

func (s *Service) UnreadCount(userID string) (int, error) {
	if userID == "" {
		return 0, store.ErrNotAuthenticated
	}
	return s.store.UnreadCount(userID)
}

func (s *Service) MarkRead(userID, id string) error {
	if userID == "" {
		return store.ErrNotAuthenticated
	}
	return s.store.MarkNotificationRead(id, userID)
}

func (s *Service) MarkAllRead(userID string) error {
	if userID == "" {
		return store.ErrNotAuthenticated
	}
	return s.store.MarkAllNotificationsRead(userID)
}

func (s *Service) Delete(userID, id string) error {
	if userID == "" {
		return store.ErrNotAuthenticated
	}
	return s.store.DeleteNotification(id, userID)
}

// Create stores a notification for any component that wants to alert a
// user. The owning identity is fixed at creation.
func (s *Service) Create(n *models.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("notification without owner")
	}
	if n.Type == "" {
		n.Type = models.NotifySystem
	}
	return s.store.InsertNotification(n)
}
