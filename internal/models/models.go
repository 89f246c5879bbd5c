package models

import "time"

// ChannelKind distinguishes org-wide group channels from two-person
// direct channels.
type ChannelKind string

const (
	ChannelGroup  ChannelKind = "group"
	ChannelDirect ChannelKind = "direct"
)

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"-"`
	OrganizationID string `json:"organization_id"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Status         string `json:"status,omitempty"`
}

type Channel struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Kind ChannelKind `json:"kind"`
	// Color is an optional UI tag, group channels only.
	Color string `json:"color,omitempty"`
	// DirectKey is the canonical sorted member pair for direct channels,
	// empty for group channels. A unique index on it makes direct-channel
	// creation race-safe.
	DirectKey      string    `json:"-"`
	OrganizationID string    `json:"organization_id"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	Members        []User    `json:"members,omitempty"`
}

// MemberIDs returns the ids of the channel's members.
func (c *Channel) MemberIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

type AttachmentKind string

const (
	AttachmentImage   AttachmentKind = "image"
	AttachmentFile    AttachmentKind = "file"
	AttachmentVoice   AttachmentKind = "voice"
	AttachmentGif     AttachmentKind = "gif"
	AttachmentSticker AttachmentKind = "sticker"
)

type Attachment struct {
	ID        string         `json:"id"`
	MessageID string         `json:"message_id"`
	Kind      AttachmentKind `json:"kind"`
	Name      string         `json:"name"`
	FilePath  string         `json:"file_path"`
	FileSize  int64          `json:"file_size,omitempty"`
}

type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	UserID      string       `json:"user_id"`
	UserName    string       `json:"user_name"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsEdited    bool         `json:"is_edited"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type NotificationType string

const (
	NotifyTaskAssigned NotificationType = "task_assigned"
	NotifyTaskDue      NotificationType = "task_due"
	NotifyMessage      NotificationType = "message"
	NotifyDocument     NotificationType = "document"
	NotifySystem       NotificationType = "system"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

type Task struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	AssigneeID     string     `json:"assignee_id,omitempty"`
	AssigneeName   string     `json:"assignee_name,omitempty"`
	ClientID       string     `json:"client_id,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Client struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Document struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Category       string    `json:"category,omitempty"`
	Year           int       `json:"year,omitempty"`
	ClientID       string    `json:"client_id,omitempty"`
	FilePath       string    `json:"file_path"`
	FileSize       int64     `json:"file_size,omitempty"`
	UploadedBy     string    `json:"uploaded_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserSettings struct {
	UserID      string `json:"user_id"`
	Language    string `json:"language"`
	DarkMode    bool   `json:"dark_mode"`
	CompactMode bool   `json:"compact_mode"`
	SoundOn     bool   `json:"sound_enabled"`
	PushOn      bool   `json:"push_enabled"`
}

// PushSubscription is one registered Web Push endpoint for a user's
// device, keyed by (user, endpoint).
type PushSubscription struct {
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
