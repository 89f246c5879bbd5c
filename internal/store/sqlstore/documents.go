package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

func (s *SQLStore) CreateClient(c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO clients (id, organization_id, name, email, created_at) VALUES (?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, c.ID, c.OrganizationID, c.Name, c.Email, c.CreatedAt)
	return err
}

func (s *SQLStore) ListClients(orgID string) ([]models.Client, error) {
	query := s.rebind("SELECT id, organization_id, name, COALESCE(email, ''), created_at FROM clients WHERE organization_id = ? ORDER BY name")
	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *SQLStore) InsertDocument(d *models.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO documents (id, organization_id, name, category, year, client_id, file_path, file_size, uploaded_by, created_at) VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)")
	_, err := s.db.Exec(query, d.ID, d.OrganizationID, d.Name, d.Category, d.Year, d.ClientID, d.FilePath, d.FileSize, d.UploadedBy, d.CreatedAt)
	return err
}

const documentColumns = "id, organization_id, name, COALESCE(category, ''), COALESCE(year, 0), COALESCE(client_id, ''), file_path, COALESCE(file_size, 0), uploaded_by, created_at"

func (s *SQLStore) GetDocument(id string) (*models.Document, error) {
	query := s.rebind("SELECT " + documentColumns + " FROM documents WHERE id = ?")
	var d models.Document
	err := s.db.QueryRow(query, id).Scan(&d.ID, &d.OrganizationID, &d.Name, &d.Category, &d.Year, &d.ClientID, &d.FilePath, &d.FileSize, &d.UploadedBy, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLStore) listDocuments(query string, args ...any) ([]models.Document, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Name, &d.Category, &d.Year, &d.ClientID, &d.FilePath, &d.FileSize, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLStore) ListDocuments(orgID string) ([]models.Document, error) {
	query := s.rebind("SELECT " + documentColumns + " FROM documents WHERE organization_id = ? ORDER BY created_at DESC")
	return s.listDocuments(query, orgID)
}

func (s *SQLStore) ListDocumentsByClient(clientID string) ([]models.Document, error) {
	query := s.rebind("SELECT " + documentColumns + " FROM documents WHERE client_id = ? ORDER BY created_at DESC")
	return s.listDocuments(query, clientID)
}

func (s *SQLStore) DeleteDocument(id string) error {
	query := s.rebind("DELETE FROM documents WHERE id = ?")
	res, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
