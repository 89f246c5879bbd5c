package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

func (s *SQLStore) CreateTask(t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	query := s.rebind("INSERT INTO tasks (id, organization_id, title, description, status, assignee_id, client_id, due_date, created_by, created_at) VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)")
	_, err := s.db.Exec(query, t.ID, t.OrganizationID, t.Title, t.Description, string(t.Status), t.AssigneeID, t.ClientID, t.DueDate, t.CreatedBy, t.CreatedAt)
	return err
}

const taskColumns = `
	t.id, t.organization_id, t.title, COALESCE(t.description, ''), t.status,
	COALESCE(t.assignee_id, ''), COALESCE(u.name, ''), COALESCE(t.client_id, ''),
	t.due_date, t.created_by, t.created_at
`

const taskFrom = `
	FROM tasks t
	LEFT JOIN users u ON t.assignee_id = u.id
`

func scanTask(scan func(dest ...any) error) (*models.Task, error) {
	var t models.Task
	var status string
	var due sql.NullTime
	err := scan(&t.ID, &t.OrganizationID, &t.Title, &t.Description, &status,
		&t.AssigneeID, &t.AssigneeName, &t.ClientID, &due, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	if due.Valid {
		t.DueDate = &due.Time
	}
	return &t, nil
}

func (s *SQLStore) GetTask(id string) (*models.Task, error) {
	query := s.rebind("SELECT " + taskColumns + taskFrom + " WHERE t.id = ?")
	row := s.db.QueryRow(query, id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return t, err
}

func (s *SQLStore) UpdateTask(t *models.Task) error {
	query := s.rebind("UPDATE tasks SET title = ?, description = ?, status = ?, assignee_id = NULLIF(?, ''), client_id = NULLIF(?, ''), due_date = ? WHERE id = ?")
	res, err := s.db.Exec(query, t.Title, t.Description, string(t.Status), t.AssigneeID, t.ClientID, t.DueDate, t.ID)
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

func (s *SQLStore) DeleteTask(id string) error {
	query := s.rebind("DELETE FROM tasks WHERE id = ?")
	res, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) listTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *SQLStore) ListTasks(orgID string) ([]models.Task, error) {
	query := s.rebind("SELECT " + taskColumns + taskFrom + " WHERE t.organization_id = ? ORDER BY t.created_at DESC")
	return s.listTasks(query, orgID)
}

func (s *SQLStore) ListTasksByStatus(orgID string, status models.TaskStatus) ([]models.Task, error) {
	query := s.rebind("SELECT " + taskColumns + taskFrom + " WHERE t.organization_id = ? AND t.status = ? ORDER BY t.due_date ASC")
	return s.listTasks(query, orgID, string(status))
}

func (s *SQLStore) ListTasksByAssignee(assigneeID string) ([]models.Task, error) {
	query := s.rebind("SELECT " + taskColumns + taskFrom + " WHERE t.assignee_id = ? ORDER BY t.due_date ASC")
	return s.listTasks(query, assigneeID)
}

func (s *SQLStore) ListTasksDueBetween(orgID string, from, to time.Time) ([]models.Task, error) {
	query := s.rebind("SELECT " + taskColumns + taskFrom + " WHERE t.organization_id = ? AND t.due_date >= ? AND t.due_date <= ? ORDER BY t.due_date ASC")
	return s.listTasks(query, orgID, from, to)
}
