package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/rdevries/kantoor/internal/auth"
	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store/sqlstore"
)

var testTokens = auth.NewTokenManager([]byte("test-secret"), time.Hour)

func newTestStore(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	store, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *sqlstore.SQLStore, name, orgID string) *models.User {
	t.Helper()
	u := &models.User{
		Name:           name,
		Email:          name + "@example.com",
		Password:       "hashed",
		OrganizationID: orgID,
	}
	if err := store.CreateUser(u); err != nil {
		t.Fatal(err)
	}
	return u
}

// loginAs attaches a valid session cookie for the user.
func loginAs(t *testing.T, req *http.Request, userID string) {
	t.Helper()
	token, err := testTokens.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
}

// authed wraps a handler in the session middleware, the way the router
// mounts it.
func authed(h http.HandlerFunc) http.Handler {
	return middleware.Auth(testTokens)(h)
}
