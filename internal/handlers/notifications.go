package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/store"
)

type NotificationHandler struct {
	Store   store.Store
	Service *notify.Service
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Service.List(middleware.UserID(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.UnreadCount(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkRead(middleware.UserID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkAllRead(middleware.UserID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(middleware.UserID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterPush stores one device's Web Push endpoint for the caller.
func (h *NotificationHandler) RegisterPush(w http.ResponseWriter, r *http.Request) {
	type RegisterPushRequest struct {
		Endpoint string `json:"endpoint" validate:"required,url"`
		P256dh   string `json:"p256dh" validate:"required"`
		Auth     string `json:"auth" validate:"required"`
	}

	var req RegisterPushRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub := &models.PushSubscription{
		UserID:   middleware.UserID(r),
		Endpoint: req.Endpoint,
		P256dh:   req.P256dh,
		Auth:     req.Auth,
	}
	if err := h.Store.SavePushSubscription(sub); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// UnregisterPush removes one device endpoint.
func (h *NotificationHandler) UnregisterPush(w http.ResponseWriter, r *http.Request) {
	type UnregisterPushRequest struct {
		Endpoint string `json:"endpoint" validate:"required"`
	}

	var req UnregisterPushRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.DeletePushSubscription(middleware.UserID(r), req.Endpoint); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
