package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/rdevries/kantoor/internal/realtime"
)

// EventSink receives a row-change event after each committed write to a
// feed-carrying table. The realtime broker implements it.
type EventSink interface {
	Publish(realtime.Event)
}

type SQLStore struct {
	db         *sql.DB
	driverName string
	events     EventSink
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetEvents attaches the change-feed sink. Must be called before the
// store is shared; writes made without a sink simply emit no events.
func (s *SQLStore) SetEvents(sink EventSink) {
	s.events = sink
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) publish(e realtime.Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		avatar_url TEXT,
		status TEXT
	);

	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		color TEXT,
		direct_key TEXT UNIQUE,
		organization_id TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS channel_members (
		channel_id TEXT,
		user_id TEXT,
		PRIMARY KEY (channel_id, user_id),
		FOREIGN KEY (channel_id) REFERENCES channels(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		text TEXT NOT NULL,
		is_edited BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (channel_id) REFERENCES channels(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS message_attachments (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_size INTEGER,
		FOREIGN KEY (message_id) REFERENCES messages(id)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		link TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		assignee_id TEXT,
		client_id TEXT,
		due_date DATETIME,
		created_by TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		year INTEGER,
		client_id TEXT,
		file_path TEXT NOT NULL,
		file_size INTEGER,
		uploaded_by TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY,
		language TEXT NOT NULL DEFAULT 'NL',
		dark_mode BOOLEAN NOT NULL DEFAULT FALSE,
		compact_mode BOOLEAN NOT NULL DEFAULT FALSE,
		sound_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		push_enabled BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS push_subscriptions (
		user_id TEXT,
		endpoint TEXT,
		p256dh TEXT NOT NULL,
		auth TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, endpoint)
	);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

// isUniqueViolation reports whether err is a unique-constraint failure,
// for both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite3
		strings.Contains(msg, "duplicate key value") // postgres
}
