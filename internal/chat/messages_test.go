package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store"
)

func setupGroupChannel(t *testing.T, env *testEnv) (*models.Channel, *models.User, *models.User, *models.User) {
	t.Helper()
	dir := NewDirectory(env.store)
	anna := env.createUser(t, "anna", "org1")
	ben := env.createUser(t, "ben", "org1")
	cem := env.createUser(t, "cem", "org1")
	ch, err := dir.CreateChannel(anna.ID, "general", models.ChannelGroup, "", nil)
	require.NoError(t, err)
	return ch, anna, ben, cem
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, _, _ := setupGroupChannel(t, env)

	_, err := msgs.Send(anna.ID, ch.ID, "   \n\t", nil)
	assert.ErrorIs(t, err, store.ErrEmptyMessage)

	list, err := msgs.GetMessages(ch.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "rejected send must not write a row")
}

func TestSendAttachmentOnlyAllowed(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, _, _ := setupGroupChannel(t, env)

	att := []models.Attachment{{Kind: models.AttachmentImage, Name: "scan.png", FilePath: "uploads/scan.png"}}
	sent, err := msgs.Send(anna.ID, ch.ID, "", att)
	require.NoError(t, err)
	assert.Equal(t, "", sent.Text)
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "scan.png", sent.Attachments[0].Name)
}

func TestSendRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, _, _, _ := setupGroupChannel(t, env)
	outsider := env.createUser(t, "outsider", "org2")

	_, err := msgs.Send(outsider.ID, ch.ID, "hello", nil)
	assert.ErrorIs(t, err, store.ErrForbidden)
}

func TestSendReturnsHydratedMessage(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, _, _ := setupGroupChannel(t, env)

	sent, err := msgs.Send(anna.ID, ch.ID, "hello", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, "anna", sent.UserName)
	assert.False(t, sent.CreatedAt.IsZero())
}

func TestSendFansOutToOtherMembers(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, ben, cem := setupGroupChannel(t, env)

	long := strings.Repeat("x", 80)
	_, err := msgs.Send(anna.ID, ch.ID, long, nil)
	require.NoError(t, err)

	for _, member := range []*models.User{ben, cem} {
		ns, err := env.store.ListNotifications(member.ID, 10)
		require.NoError(t, err)
		require.Len(t, ns, 1, "member %s", member.Name)
		assert.Equal(t, models.NotifyMessage, ns[0].Type)
		assert.Equal(t, "anna in #general", ns[0].Title)
		assert.Equal(t, strings.Repeat("x", 50), ns[0].Body)
		assert.Equal(t, "chat", ns[0].Link)
	}

	// The sender does not get notified about their own message.
	ns, err := env.store.ListNotifications(anna.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestSendDirectFanOutUsesSenderName(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.store)
	msgs := NewMessages(env.store, env.broker)

	anna := env.createUser(t, "anna", "org1")
	ben := env.createUser(t, "ben", "org1")
	ch, err := dir.GetOrCreateDirect(anna.ID, ben.ID)
	require.NoError(t, err)

	_, err = msgs.Send(anna.ID, ch.ID, "lunch?", nil)
	require.NoError(t, err)

	ns, err := env.store.ListNotifications(ben.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, "anna", ns[0].Title)
}

// notifyFailStore fails every notification insert.
type notifyFailStore struct {
	store.Store
}

func (s *notifyFailStore) InsertNotification(n *models.Notification) error {
	return errors.New("notification backend down")
}

func TestSendSurvivesFanOutFailure(t *testing.T) {
	env := newTestEnv(t)
	ch, anna, _, _ := setupGroupChannel(t, env)
	msgs := NewMessages(&notifyFailStore{Store: env.store}, env.broker)

	sent, err := msgs.Send(anna.ID, ch.ID, "still delivered", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)

	list, err := msgs.GetMessages(ch.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEditRejectsEmptyText(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, _, _ := setupGroupChannel(t, env)

	sent, err := msgs.Send(anna.ID, ch.ID, "original", nil)
	require.NoError(t, err)

	_, err = msgs.Edit(anna.ID, sent.ID, "  ")
	assert.ErrorIs(t, err, store.ErrEmptyMessage)
}

func TestSubscribeToChannelDeliversHydrated(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, _, _ := setupGroupChannel(t, env)

	got := make(chan models.Message, 1)
	sub := msgs.SubscribeToChannel(ch.ID, func(m models.Message) {
		got <- m
	})
	defer sub.Cancel()

	sent, err := msgs.Send(anna.ID, ch.ID, "hello", nil)
	require.NoError(t, err)

	select {
	case m := <-got:
		assert.Equal(t, sent.ID, m.ID)
		assert.Equal(t, "anna", m.UserName, "feed must deliver the re-fetched row")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the live message")
	}
}

func TestSubscribeToUpdatesSkipsInserts(t *testing.T) {
	env := newTestEnv(t)
	msgs := NewMessages(env.store, env.broker)
	ch, anna, _, _ := setupGroupChannel(t, env)

	events := make(chan string, 2)
	sub := msgs.SubscribeToUpdates(ch.ID, func(e realtime.Event) {
		events <- string(e.Type)
	})
	defer sub.Cancel()

	sent, err := msgs.Send(anna.ID, ch.ID, "draft", nil)
	require.NoError(t, err)
	_, err = msgs.Edit(anna.ID, sent.ID, "final")
	require.NoError(t, err)
	require.NoError(t, msgs.Delete(anna.ID, sent.ID))

	for _, want := range []string{"update", "delete"} {
		select {
		case got := <-events:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}
