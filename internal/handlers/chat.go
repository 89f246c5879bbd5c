package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rdevries/kantoor/internal/chat"
	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/storage"
	"github.com/rdevries/kantoor/internal/store"
)

const maxAttachmentSize = 25 << 20 // 25 MiB

type ChatHandler struct {
	Store     store.Store
	Directory *chat.Directory
	Messages  *chat.Messages
	Bucket    *storage.Bucket
}

func (h *ChatHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.Directory.ListChannels(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (h *ChatHandler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	type CreateChannelRequest struct {
		Name      string   `json:"name" validate:"required"`
		Color     string   `json:"color"`
		MemberIDs []string `json:"member_ids"`
	}

	var req CreateChannelRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ch, err := h.Directory.CreateChannel(middleware.UserID(r), req.Name, models.ChannelGroup, req.Color, req.MemberIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// OpenDirect returns the caller's direct channel with another user,
// creating it on first use.
func (h *ChatHandler) OpenDirect(w http.ResponseWriter, r *http.Request) {
	type OpenDirectRequest struct {
		UserID string `json:"user_id" validate:"required"`
	}

	var req OpenDirectRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ch, err := h.Directory.GetOrCreateDirect(middleware.UserID(r), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["id"]
	userID := middleware.UserID(r)

	isMember, err := h.Store.IsMember(channelID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !isMember {
		writeError(w, store.ErrForbidden)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	messages, err := h.Messages.GetMessages(channelID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	type SendMessageRequest struct {
		Text        string              `json:"text"`
		Attachments []models.Attachment `json:"attachments"`
	}

	channelID := mux.Vars(r)["id"]
	var req SendMessageRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Messages.Send(middleware.UserID(r), channelID, req.Text, req.Attachments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	type EditMessageRequest struct {
		Text string `json:"text" validate:"required"`
	}

	var req EditMessageRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Messages.Edit(middleware.UserID(r), mux.Vars(r)["id"], req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.Messages.Delete(middleware.UserID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadAttachment stores an attachment file and returns the path and a
// signed URL the sender embeds in the message.
func (h *ChatHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["id"]
	userID := middleware.UserID(r)

	isMember, err := h.Store.IsMember(channelID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !isMember {
		writeError(w, store.ErrForbidden)
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := path.Ext(header.Filename)
	objectPath := fmt.Sprintf("chat/%s/%s%s", channelID, uuid.NewString(), ext)
	stored, size, err := h.Bucket.Upload(objectPath, file)
	if err != nil {
		writeError(w, err)
		return
	}

	signed, err := h.Bucket.SignedURL(stored, time.Hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"path": stored,
		"url":  signed,
		"name": header.Filename,
		"size": size,
	})
}
