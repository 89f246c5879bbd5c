package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rdevries/kantoor/internal/models"
)

// GetSettings returns the user's settings, falling back to defaults when
// no row exists yet.
func (s *SQLStore) GetSettings(userID string) (*models.UserSettings, error) {
	query := s.rebind("SELECT user_id, language, dark_mode, compact_mode, sound_enabled, push_enabled FROM user_settings WHERE user_id = ?")
	var st models.UserSettings
	err := s.db.QueryRow(query, userID).Scan(&st.UserID, &st.Language, &st.DarkMode, &st.CompactMode, &st.SoundOn, &st.PushOn)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.UserSettings{UserID: userID, Language: "NL", SoundOn: true, PushOn: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLStore) UpsertSettings(st *models.UserSettings) error {
	// ON CONFLICT syntax is shared by sqlite and postgres.
	query := s.rebind(`
		INSERT INTO user_settings (user_id, language, dark_mode, compact_mode, sound_enabled, push_enabled)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			language = EXCLUDED.language,
			dark_mode = EXCLUDED.dark_mode,
			compact_mode = EXCLUDED.compact_mode,
			sound_enabled = EXCLUDED.sound_enabled,
			push_enabled = EXCLUDED.push_enabled
	`)
	_, err := s.db.Exec(query, st.UserID, st.Language, st.DarkMode, st.CompactMode, st.SoundOn, st.PushOn)
	return err
}

func (s *SQLStore) SavePushSubscription(sub *models.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	query := s.rebind(`
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth
	`)
	_, err := s.db.Exec(query, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt)
	return err
}

func (s *SQLStore) ListPushSubscriptions(userID string) ([]models.PushSubscription, error) {
	query := s.rebind("SELECT user_id, endpoint, p256dh, auth, created_at FROM push_subscriptions WHERE user_id = ?")
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var sub models.PushSubscription
		if err := rows.Scan(&sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLStore) DeletePushSubscription(userID, endpoint string) error {
	query := s.rebind("DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?")
	_, err := s.db.Exec(query, userID, endpoint)
	return err
}
