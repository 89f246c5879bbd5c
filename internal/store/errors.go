package store

import "errors"

// Typed failures surfaced by the store and the services on top of it.
// Handlers map these onto HTTP status codes; anything else is treated as
// a transient backend failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrForbidden        = errors.New("forbidden")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoOrganization   = errors.New("no organization")
	ErrEmptyMessage     = errors.New("message has no text and no attachments")
)
