package store

import (
	"time"

	"github.com/rdevries/kantoor/internal/models"
)

// Store is the persistence boundary of the application. Every method
// takes the acting identity explicitly; nothing reads ambient session
// state.
type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUserProfile(user *models.User) error
	ListOrgMembers(orgID string) ([]models.User, error)
	SearchUsers(orgID, query string) ([]models.User, error)

	// Channel operations
	CreateChannel(ch *models.Channel) error
	GetChannel(id string) (*models.Channel, error)
	GetDirectChannel(directKey string) (*models.Channel, error)
	ListUserChannels(userID string) ([]models.Channel, error)
	AddMember(channelID, userID string) error
	RemoveMember(channelID, userID string) error
	IsMember(channelID, userID string) (bool, error)

	// Message operations
	InsertMessage(m *models.Message) error
	GetMessage(id string) (*models.Message, error)
	ListMessages(channelID string, limit, offset int) ([]models.Message, error)
	UpdateMessageText(id, authorID, text string) (*models.Message, error)
	DeleteMessage(id, authorID string) error

	// Notification operations
	InsertNotification(n *models.Notification) error
	ListNotifications(userID string, limit int) ([]models.Notification, error)
	UnreadCount(userID string) (int, error)
	MarkNotificationRead(id, userID string) error
	MarkAllNotificationsRead(userID string) error
	DeleteNotification(id, userID string) error

	// Task operations
	CreateTask(t *models.Task) error
	GetTask(id string) (*models.Task, error)
	UpdateTask(t *models.Task) error
	DeleteTask(id string) error
	ListTasks(orgID string) ([]models.Task, error)
	ListTasksByStatus(orgID string, status models.TaskStatus) ([]models.Task, error)
	ListTasksByAssignee(assigneeID string) ([]models.Task, error)
	ListTasksDueBetween(orgID string, from, to time.Time) ([]models.Task, error)

	// Client operations
	CreateClient(c *models.Client) error
	ListClients(orgID string) ([]models.Client, error)

	// Document operations
	InsertDocument(d *models.Document) error
	GetDocument(id string) (*models.Document, error)
	ListDocuments(orgID string) ([]models.Document, error)
	ListDocumentsByClient(clientID string) ([]models.Document, error)
	DeleteDocument(id string) error

	// Settings operations
	GetSettings(userID string) (*models.UserSettings, error)
	UpsertSettings(s *models.UserSettings) error

	// Push subscription operations
	SavePushSubscription(sub *models.PushSubscription) error
	ListPushSubscriptions(userID string) ([]models.PushSubscription, error)
	DeletePushSubscription(userID, endpoint string) error
}
