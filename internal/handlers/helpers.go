package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rdevries/kantoor/internal/store"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

// writeError maps the store's typed failures onto status codes.
// Anything unrecognized is treated as a transient backend failure.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		http.Error(w, "please sign in", http.StatusUnauthorized)
	case errors.Is(err, store.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrEmptyMessage):
		http.Error(w, "message needs text or an attachment", http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrNoOrganization):
		http.Error(w, "account has no organization", http.StatusConflict)
	case errors.Is(err, store.ErrAlreadyExists):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		log.Printf("handlers: %v", err)
		http.Error(w, "temporarily unavailable, please retry", http.StatusServiceUnavailable)
	}
}

// decodeValid decodes a JSON body and runs its validation tags.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}
