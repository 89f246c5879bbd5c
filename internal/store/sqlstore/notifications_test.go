package sqlstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/rdevries/kantoor/internal/models"
)

func TestNotificationsUnreadAccounting(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	u := mustCreateUser(t, "Jan", "jan@example.com", "org1")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			UserID:    u.ID,
			Type:      models.NotifyMessage,
			Title:     fmt.Sprintf("notification %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := testStore.InsertNotification(n); err != nil {
			t.Fatal(err)
		}
	}

	count, err := testStore.UnreadCount(u.ID)
	if err != nil || count != 3 {
		t.Errorf("Expected 3 unread, got %d (err=%v)", count, err)
	}

	list, err := testStore.ListNotifications(u.ID, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(list))
	}
	// Newest first.
	if list[0].Title != "notification 2" || list[2].Title != "notification 0" {
		t.Errorf("Expected newest-first ordering, got %v", list)
	}

	if err := testStore.MarkAllNotificationsRead(u.ID); err != nil {
		t.Fatal(err)
	}
	count, _ = testStore.UnreadCount(u.ID)
	if count != 0 {
		t.Errorf("Expected 0 unread after mark-all, got %d", count)
	}
	list, _ = testStore.ListNotifications(u.ID, 50)
	for _, n := range list {
		if !n.IsRead {
			t.Errorf("Expected %s read after mark-all", n.ID)
		}
	}
}

func TestMarkNotificationReadScopedToOwner(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	owner := mustCreateUser(t, "Jan", "jan@example.com", "org1")
	other := mustCreateUser(t, "Piet", "piet@example.com", "org1")

	n := &models.Notification{UserID: owner.ID, Type: models.NotifySystem, Title: "hello"}
	if err := testStore.InsertNotification(n); err != nil {
		t.Fatal(err)
	}

	// A different identity cannot flip the flag.
	testStore.MarkNotificationRead(n.ID, other.ID)
	count, _ := testStore.UnreadCount(owner.ID)
	if count != 1 {
		t.Errorf("Expected notification still unread, got count %d", count)
	}

	testStore.MarkNotificationRead(n.ID, owner.ID)
	count, _ = testStore.UnreadCount(owner.ID)
	if count != 0 {
		t.Errorf("Expected 0 unread, got %d", count)
	}
}

func TestDeleteNotificationScopedToOwner(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	owner := mustCreateUser(t, "Jan", "jan@example.com", "org1")
	other := mustCreateUser(t, "Piet", "piet@example.com", "org1")

	n := &models.Notification{UserID: owner.ID, Type: models.NotifySystem, Title: "hello"}
	testStore.InsertNotification(n)

	testStore.DeleteNotification(n.ID, other.ID)
	list, _ := testStore.ListNotifications(owner.ID, 50)
	if len(list) != 1 {
		t.Fatalf("Expected notification kept, got %d", len(list))
	}

	testStore.DeleteNotification(n.ID, owner.ID)
	list, _ = testStore.ListNotifications(owner.ID, 50)
	if len(list) != 0 {
		t.Errorf("Expected notification deleted, got %d", len(list))
	}
}
