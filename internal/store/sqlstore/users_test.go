package sqlstore

import (
	"errors"
	"testing"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

func TestUpdateUserProfile(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	u := mustCreateUser(t, "Anna", "anna@example.com", "org1")

	u.Name = "Anna Berg"
	u.Status = "Busy"
	u.AvatarURL = "https://cdn.example.com/anna.png"
	if err := testStore.UpdateUserProfile(u); err != nil {
		t.Fatal(err)
	}

	got, err := testStore.GetUserByID(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Anna Berg" || got.Status != "Busy" || got.AvatarURL != "https://cdn.example.com/anna.png" {
		t.Errorf("Expected updated profile fields, got %+v", got)
	}
	if got.Email != "anna@example.com" || got.OrganizationID != "org1" {
		t.Errorf("Expected email and organization untouched, got %+v", got)
	}

	ghost := &models.User{ID: "nope", Name: "x"}
	if err := testStore.UpdateUserProfile(ghost); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
