package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

func TestCreateChannelOrgWideByDefault(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.store)

	anna := env.createUser(t, "anna", "org1")
	ben := env.createUser(t, "ben", "org1")
	cem := env.createUser(t, "cem", "org1")
	env.createUser(t, "outsider", "org2")

	ch, err := dir.CreateChannel(anna.ID, "general", models.ChannelGroup, "#ff0000", nil)
	require.NoError(t, err)

	want := map[string]bool{anna.ID: true, ben.ID: true, cem.ID: true}
	require.Len(t, ch.Members, 3)
	for _, m := range ch.Members {
		assert.True(t, want[m.ID], "unexpected member %s", m.Name)
	}
}

func TestCreateChannelExplicitMembers(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.store)

	anna := env.createUser(t, "anna", "org1")
	ben := env.createUser(t, "ben", "org1")
	env.createUser(t, "cem", "org1")

	ch, err := dir.CreateChannel(anna.ID, "payroll", models.ChannelGroup, "", []string{ben.ID})
	require.NoError(t, err)

	// The creator is always added, even when not listed.
	require.Len(t, ch.Members, 2)
	got := map[string]bool{}
	for _, m := range ch.Members {
		got[m.ID] = true
	}
	assert.True(t, got[anna.ID])
	assert.True(t, got[ben.ID])
}

func TestCreateChannelRequiresOrganization(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.store)

	drifter := env.createUser(t, "drifter", "")

	_, err := dir.CreateChannel(drifter.ID, "general", models.ChannelGroup, "", nil)
	assert.ErrorIs(t, err, store.ErrNoOrganization)
}

func TestDirectKeyOrderIndependent(t *testing.T) {
	if DirectKey("a", "b") != DirectKey("b", "a") {
		t.Error("Expected the same key regardless of argument order")
	}
}

func TestGetOrCreateDirectConverges(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.store)

	anna := env.createUser(t, "anna", "org1")
	ben := env.createUser(t, "ben", "org1")

	first, err := dir.GetOrCreateDirect(anna.ID, ben.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelDirect, first.Kind)
	require.Len(t, first.Members, 2)

	// The same pair from the other side resolves to the same channel.
	second, err := dir.GetOrCreateDirect(ben.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	channels, err := dir.ListChannels(anna.ID)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestGetOrCreateDirectRejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	dir := NewDirectory(env.store)

	anna := env.createUser(t, "anna", "org1")

	_, err := dir.GetOrCreateDirect(anna.ID, anna.ID)
	assert.Error(t, err)
}
