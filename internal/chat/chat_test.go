package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/store/sqlstore"
)

type testEnv struct {
	store  *sqlstore.SQLStore
	broker *realtime.Broker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	broker := realtime.NewBroker()
	st.SetEvents(broker)
	return &testEnv{store: st, broker: broker}
}

func (e *testEnv) createUser(t *testing.T, name, orgID string) *models.User {
	t.Helper()
	u := &models.User{
		Name:           name,
		Email:          fmt.Sprintf("%s@example.com", name),
		Password:       "secret",
		OrganizationID: orgID,
	}
	require.NoError(t, e.store.CreateUser(u))
	return u
}
