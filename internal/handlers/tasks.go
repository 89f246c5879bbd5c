package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/store"
)

type TaskHandler struct {
	Store  store.Store
	Notify *notify.Service
}

type taskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	AssigneeID  string     `json:"assignee_id"`
	ClientID    string     `json:"client_id"`
	DueDate     *time.Time `json:"due_date"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	var tasks []models.Task
	switch {
	case q.Get("status") != "":
		tasks, err = h.Store.ListTasksByStatus(me.OrganizationID, models.TaskStatus(q.Get("status")))
	case q.Get("mine") == "true":
		tasks, err = h.Store.ListTasksByAssignee(me.ID)
	case q.Get("from") != "" && q.Get("to") != "":
		var from, to time.Time
		if from, err = time.Parse(time.RFC3339, q.Get("from")); err == nil {
			to, err = time.Parse(time.RFC3339, q.Get("to"))
		}
		if err != nil {
			http.Error(w, "from/to must be RFC3339 timestamps", http.StatusBadRequest)
			return
		}
		tasks, err = h.Store.ListTasksDueBetween(me.OrganizationID, from, to)
	default:
		tasks, err = h.Store.ListTasks(me.OrganizationID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.orgTask(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// orgTask loads the task and rejects callers from another organization.
func (h *TaskHandler) orgTask(r *http.Request) (*models.Task, error) {
	task, err := h.Store.GetTask(mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		return nil, err
	}
	if task.OrganizationID != me.OrganizationID {
		return nil, store.ErrForbidden
	}
	return task, nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	task := &models.Task{
		OrganizationID: me.OrganizationID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.TaskStatus(req.Status),
		AssigneeID:     req.AssigneeID,
		ClientID:       req.ClientID,
		DueDate:        req.DueDate,
		CreatedBy:      me.ID,
	}
	if err := h.Store.CreateTask(task); err != nil {
		writeError(w, err)
		return
	}

	h.notifyAssignee(task, me)

	created, err := h.Store.GetTask(task.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.orgTask(r)
	if err != nil {
		writeError(w, err)
		return
	}

	previousAssignee := task.AssigneeID
	task.Title = req.Title
	task.Description = req.Description
	if req.Status != "" {
		task.Status = models.TaskStatus(req.Status)
	}
	task.AssigneeID = req.AssigneeID
	task.ClientID = req.ClientID
	task.DueDate = req.DueDate

	if err := h.Store.UpdateTask(task); err != nil {
		writeError(w, err)
		return
	}

	if task.AssigneeID != "" && task.AssigneeID != previousAssignee {
		if me, err := h.Store.GetUserByID(middleware.UserID(r)); err == nil {
			h.notifyAssignee(task, me)
		}
	}

	updated, err := h.Store.GetTask(task.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, err := h.orgTask(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.DeleteTask(task.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// notifyAssignee alerts the assignee about a task assigned to them.
// Best effort: a failure never fails the task write.
func (h *TaskHandler) notifyAssignee(task *models.Task, actor *models.User) {
	if task.AssigneeID == "" || task.AssigneeID == actor.ID {
		return
	}
	err := h.Notify.Create(&models.Notification{
		UserID: task.AssigneeID,
		Type:   models.NotifyTaskAssigned,
		Title:  actor.Name + " assigned you a task",
		Body:   task.Title,
		Link:   "tasks",
	})
	if err != nil {
		log.Printf("tasks: assignment notification failed: %v", err)
	}
}
