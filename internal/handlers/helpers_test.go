package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rdevries/kantoor/internal/store"
)

func TestWriteErrorMapsTypedFailures(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{store.ErrNotAuthenticated, http.StatusUnauthorized},
		{store.ErrForbidden, http.StatusForbidden},
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrEmptyMessage, http.StatusUnprocessableEntity},
		{store.ErrNoOrganization, http.StatusConflict},
		{store.ErrAlreadyExists, http.StatusConflict},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		writeError(rr, c.err)
		if rr.Code != c.want {
			t.Errorf("writeError(%v) returned %v, want %v", c.err, rr.Code, c.want)
		}
	}
}

func TestWriteErrorMapsUnknownsToUnavailable(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("writeError returned %v, want %v", rr.Code, http.StatusServiceUnavailable)
	}
}
