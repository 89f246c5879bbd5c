package sqlstore

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := s.rebind("INSERT INTO users (id, name, email, password, organization_id, avatar_url, status) VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.ID, user.Name, user.Email, user.Password, user.OrganizationID, user.AvatarURL, user.Status)
	return err
}

const userColumns = "id, name, email, password, organization_id, COALESCE(avatar_url, ''), COALESCE(status, '')"

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.OrganizationID, &u.AvatarURL, &u.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	return s.scanUser(s.db.QueryRow(query, email))
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	return s.scanUser(s.db.QueryRow(query, id))
}

// UpdateUserProfile rewrites the mutable profile fields. Email, password
// and organization stay as they are.
func (s *SQLStore) UpdateUserProfile(u *models.User) error {
	query := s.rebind("UPDATE users SET name = ?, avatar_url = ?, status = ? WHERE id = ?")
	res, err := s.db.Exec(query, u.Name, u.AvatarURL, u.Status, u.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListOrgMembers(orgID string) ([]models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE organization_id = ? ORDER BY name")
	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *SQLStore) SearchUsers(orgID, queryStr string) ([]models.User, error) {
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE organization_id = ? AND LOWER(name) LIKE ? LIMIT 10")
	rows, err := s.db.Query(query, orgID, "%"+strings.ToLower(queryStr)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.OrganizationID, &u.AvatarURL, &u.Status); err != nil {
			return nil, err
		}
		u.Password = ""
		users = append(users, u)
	}
	return users, rows.Err()
}
