package sqlstore

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rdevries/kantoor/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

func mustCreateUser(t *testing.T, name, email, org string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "pass", OrganizationID: org}
	if err := testStore.CreateUser(u); err != nil {
		t.Fatalf("Failed to create user %s: %v", name, err)
	}
	return u
}
