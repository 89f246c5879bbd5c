package handlers

import (
	"fmt"
	"log"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/storage"
	"github.com/rdevries/kantoor/internal/store"
)

const maxDocumentSize = 100 << 20 // 100 MiB

type DocumentHandler struct {
	Store  store.Store
	Bucket *storage.Bucket
	Notify *notify.Service
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	var docs []models.Document
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		docs, err = h.Store.ListDocumentsByClient(clientID)
	} else {
		docs, err = h.Store.ListDocuments(me.OrganizationID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	year, _ := strconv.Atoi(r.FormValue("year"))
	objectPath := fmt.Sprintf("documents/%s/%s%s", me.OrganizationID, uuid.NewString(), path.Ext(header.Filename))
	stored, size, err := h.Bucket.Upload(objectPath, file)
	if err != nil {
		writeError(w, err)
		return
	}

	doc := &models.Document{
		OrganizationID: me.OrganizationID,
		Name:           header.Filename,
		Category:       r.FormValue("category"),
		Year:           year,
		ClientID:       r.FormValue("client_id"),
		FilePath:       stored,
		FileSize:       size,
		UploadedBy:     me.ID,
	}
	if err := h.Store.InsertDocument(doc); err != nil {
		writeError(w, err)
		return
	}

	// Best-effort heads-up to the rest of the organization.
	if members, err := h.Store.ListOrgMembers(me.OrganizationID); err == nil {
		for _, m := range members {
			if m.ID == me.ID {
				continue
			}
			err := h.Notify.Create(&models.Notification{
				UserID: m.ID,
				Type:   models.NotifyDocument,
				Title:  me.Name + " uploaded a document",
				Body:   doc.Name,
				Link:   "documents",
			})
			if err != nil {
				log.Printf("documents: notification to %s failed: %v", m.ID, err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, doc)
}

// Download redirects to a signed URL for the stored file.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.GetDocument(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if doc.OrganizationID != me.OrganizationID {
		writeError(w, store.ErrForbidden)
		return
	}

	signed, err := h.Bucket.SignedURL(doc.FilePath, 15*time.Minute)
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, signed, http.StatusTemporaryRedirect)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.GetDocument(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if doc.OrganizationID != me.OrganizationID {
		writeError(w, store.ErrForbidden)
		return
	}

	if err := h.Store.DeleteDocument(doc.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Bucket.Delete(doc.FilePath); err != nil {
		log.Printf("documents: remove blob %s: %v", doc.FilePath, err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	clients, err := h.Store.ListClients(me.OrganizationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *DocumentHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	type CreateClientRequest struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	var req CreateClientRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	client := &models.Client{
		OrganizationID: me.OrganizationID,
		Name:           req.Name,
		Email:          req.Email,
	}
	if err := h.Store.CreateClient(client); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}
