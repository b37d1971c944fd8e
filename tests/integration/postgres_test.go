package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/store"
)

// skipUnlessIntegration keeps Docker-backed tests out of the normal run.
func skipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("set INTEGRATION_TEST=1 to run tests that need Docker")
	}
}

func startPostgresStore(t *testing.T) *store.SQLStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("nubomail"),
		tcpostgres.WithUsername("nubo"),
		tcpostgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://nubo:secret@%s:%s/nubomail?sslmode=disable", host, port.Port())
	s, err := store.Open(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate())
	return s
}

// The upsert behavior the whole sync design leans on has to hold on the
// production database, not just the SQLite used in unit tests.
func TestPostgresUpsertDeduplicates(t *testing.T) {
	skipUnlessIntegration(t)

	s := startPostgresStore(t)
	ctx := context.Background()

	conn := &model.Connection{
		WorkspaceID: "ws-1",
		Address:     "ops@acme.com",
		Protocol:    model.ProtocolIMAP,
		Host:        "imap.acme.com",
		Port:        993,
		Username:    "ops@acme.com",
		PasswordEnc: "c2VhbGVk",
		UseTLS:      true,
	}
	require.NoError(t, s.CreateConnection(ctx, conn))

	email := model.EmailMessage{
		ConnectionID: conn.ID,
		Folder:       "INBOX",
		UID:          17,
		MessageID:    "msg-1@acme.com",
		Subject:      "quarterly numbers",
		FromAddress:  "pat@acme.com",
		ToAddresses:  []string{"ops@acme.com"},
		SentAt:       time.Date(2025, 7, 14, 10, 30, 0, 0, time.UTC),
		FetchedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{email}))

	created, err := s.GetEmailByMessageID(ctx, conn.ID, "msg-1@acme.com")
	require.NoError(t, err)

	again := email
	again.ID = ""
	again.IsRead = true
	again.Labels = []string{"finance"}
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{again}))

	count, err := s.CountEmails(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	updated, err := s.GetEmailByMessageID(ctx, conn.ID, "msg-1@acme.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.IsRead)
	assert.Equal(t, []string{"finance"}, updated.Labels)
}

func TestPostgresConnectionLifecycle(t *testing.T) {
	skipUnlessIntegration(t)

	s := startPostgresStore(t)
	ctx := context.Background()

	conn := &model.Connection{
		WorkspaceID: "ws-1",
		Address:     "billing@acme.com",
		Protocol:    model.ProtocolPOP3,
		Host:        "pop.acme.com",
		Port:        995,
		Username:    "billing@acme.com",
		PasswordEnc: "c2VhbGVk",
		UseTLS:      true,
		Folders:     []string{"INBOX"},
	}
	require.NoError(t, s.CreateConnection(ctx, conn))

	active, err := s.ListActiveConnections(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, []string{"INBOX"}, active[0].Folders)

	syncedAt := time.Now().UTC()
	require.NoError(t, s.UpdateConnectionSync(ctx, conn.ID, syncedAt, nil))

	got, err := s.GetConnection(ctx, conn.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncedAt)
	assert.WithinDuration(t, syncedAt, *got.LastSyncedAt, time.Second)

	require.NoError(t, s.SetConnectionStatus(ctx, conn.ID, model.ConnectionDisabled))
	active, err = s.ListActiveConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPostgresMigrateVersion(t *testing.T) {
	skipUnlessIntegration(t)

	s := startPostgresStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)
}
