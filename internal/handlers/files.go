package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rdevries/kantoor/internal/storage"
)

// FilesHandler serves stored objects through signed URLs. It is the only
// unauthenticated download path; the signature is the authorization.
type FilesHandler struct {
	Bucket *storage.Bucket
}

func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	objectPath := mux.Vars(r)["path"]
	q := r.URL.Query()

	err := h.Bucket.Verify(objectPath, q.Get("expires"), q.Get("sig"))
	switch {
	case errors.Is(err, storage.ErrExpiredURL):
		http.Error(w, "link expired", http.StatusGone)
		return
	case err != nil:
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	f, err := h.Bucket.Open(objectPath)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, f); err != nil {
		// Client went away mid-download, nothing to do.
		return
	}
}
