package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/store"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/tests/testutil"
)

func createConnection(t *testing.T, s *store.SQLStore, address string) *model.Connection {
	t.Helper()
	conn := testConnection(address)
	require.NoError(t, s.CreateConnection(context.Background(), conn))
	return conn
}

func testEmail(connectionID, messageID string) model.EmailMessage {
	return model.EmailMessage{
		ConnectionID: connectionID,
		Folder:       "INBOX",
		UID:          101,
		MessageID:    messageID,
		Subject:      "quarterly numbers",
		FromName:     "Pat Chen",
		FromAddress:  "pat@acme.com",
		ToAddresses:  []string{"ops@acme.com"},
		SentAt:       time.Date(2025, 7, 14, 10, 30, 0, 0, time.UTC),
		Snippet:      "numbers attached",
		BodyKey:      "bodies/conn/abc",
		SizeBytes:    2048,
		FetchedAt:    time.Date(2025, 7, 14, 11, 0, 0, 0, time.UTC),
	}
}

// Fetching the same message on every pass must never grow the table: the
// second upsert of an identity has to land on the row the first one created.
func TestUpsertEmailsSameIdentityNoDuplicate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	conn := createConnection(t, s, "ops@acme.com")

	first := testEmail(conn.ID, "msg-1@acme.com")
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{first}))

	created, err := s.GetEmailByMessageID(ctx, conn.ID, "msg-1@acme.com")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// A later pass re-fetches the message knowing nothing about row ids.
	again := testEmail(conn.ID, "msg-1@acme.com")
	again.IsRead = true
	again.Folder = "Archive"
	again.UID = 7
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{again}))

	count, err := s.CountEmails(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	updated, err := s.GetEmailByMessageID(ctx, conn.ID, "msg-1@acme.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.IsRead)
	assert.Equal(t, "Archive", updated.Folder)
	assert.Equal(t, uint32(7), updated.UID)
}

func TestUpsertEmailsLastWriteWins(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	conn := createConnection(t, s, "ops@acme.com")
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{testEmail(conn.ID, "msg-1@acme.com")}))

	update := testEmail(conn.ID, "msg-1@acme.com")
	update.IsRead = true
	update.IsStarred = true
	update.Labels = []string{"travel"}
	update.Snippet = "rewritten preview"
	update.BodyKey = "bodies/conn/def"
	update.SizeBytes = 4096
	update.HasAttachments = true
	update.FetchedAt = time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC)
	// Immutable fields changing upstream must not rewrite history.
	update.Subject = "edited subject"
	update.FromAddress = "spoof@acme.com"
	update.SentAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{update}))

	got, err := s.GetEmailByMessageID(ctx, conn.ID, "msg-1@acme.com")
	require.NoError(t, err)

	// Mutable state follows the latest fetch.
	assert.True(t, got.IsRead)
	assert.True(t, got.IsStarred)
	assert.Equal(t, []string{"travel"}, got.Labels)
	assert.Equal(t, "rewritten preview", got.Snippet)
	assert.Equal(t, "bodies/conn/def", got.BodyKey)
	assert.Equal(t, int64(4096), got.SizeBytes)
	assert.True(t, got.HasAttachments)
	assert.WithinDuration(t, update.FetchedAt, got.FetchedAt, time.Second)

	// Identity-adjacent fields keep their first-seen values.
	assert.Equal(t, "quarterly numbers", got.Subject)
	assert.Equal(t, "pat@acme.com", got.FromAddress)
	assert.WithinDuration(t, time.Date(2025, 7, 14, 10, 30, 0, 0, time.UTC), got.SentAt, time.Second)
}

func TestGetEmailByMessageIDNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	conn := createConnection(t, s, "ops@acme.com")

	_, err := s.GetEmailByMessageID(context.Background(), conn.ID, "missing@acme.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListEmails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	connA := createConnection(t, s, "a@acme.com")
	connB := createConnection(t, s, "b@acme.com")

	invoice := testEmail(connA.ID, "invoice@acme.com")
	invoice.Subject = "March invoice"
	newsletter := testEmail(connA.ID, "news@acme.com")
	newsletter.Subject = "weekly newsletter"
	newsletter.IsRead = true
	archived := testEmail(connA.ID, "old@acme.com")
	archived.Subject = "archived thread"
	archived.Folder = "Archive"
	other := testEmail(connB.ID, "other@acme.com")
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{invoice, newsletter, archived, other}))

	inbox := "INBOX"

	byConnection, err := s.ListEmails(ctx, store.EmailFilter{ConnectionID: &connA.ID})
	require.NoError(t, err)
	assert.Len(t, byConnection, 3)

	byFolder, err := s.ListEmails(ctx, store.EmailFilter{ConnectionID: &connA.ID, Folder: &inbox})
	require.NoError(t, err)
	assert.Len(t, byFolder, 2)

	unread, err := s.ListEmails(ctx, store.EmailFilter{ConnectionID: &connA.ID, Folder: &inbox, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "March invoice", unread[0].Subject)

	query := "invoice"
	matched, err := s.ListEmails(ctx, store.EmailFilter{Query: &query})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "invoice@acme.com", matched[0].MessageID)
}

func TestListEmailsSortAndPage(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	conn := createConnection(t, s, "ops@acme.com")
	var batch []model.EmailMessage
	for i := 0; i < 5; i++ {
		m := testEmail(conn.ID, fmt.Sprintf("msg-%d@acme.com", i))
		m.Subject = fmt.Sprintf("subject %d", i)
		m.SentAt = time.Date(2025, 7, 10+i, 0, 0, 0, 0, time.UTC)
		batch = append(batch, m)
	}
	require.NoError(t, s.UpsertEmails(ctx, batch))

	newest, err := s.ListEmails(ctx, store.EmailFilter{SortDesc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "subject 4", newest[0].Subject)
	assert.Equal(t, "subject 3", newest[1].Subject)

	page, err := s.ListEmails(ctx, store.EmailFilter{SortDesc: true, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "subject 2", page[0].Subject)

	// Unknown sort columns fall back to sent_at instead of reaching the SQL.
	bySubject, err := s.ListEmails(ctx, store.EmailFilter{SortBy: "subject; DROP TABLE email_messages"})
	require.NoError(t, err)
	assert.Len(t, bySubject, 5)
}

func TestReplaceAttachments(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	conn := createConnection(t, s, "ops@acme.com")
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{testEmail(conn.ID, "msg-1@acme.com")}))
	email, err := s.GetEmailByMessageID(ctx, conn.ID, "msg-1@acme.com")
	require.NoError(t, err)

	first := []model.Attachment{
		{Filename: "report.pdf", ContentType: "application/pdf", SizeBytes: 1024},
		{Filename: "logo.png", ContentType: "image/png", SizeBytes: 64, IsInline: true, ContentID: "logo@acme.com"},
	}
	require.NoError(t, s.ReplaceAttachments(ctx, email.ID, first))

	atts, err := s.GetAttachments(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, "logo.png", atts[0].Filename)
	assert.True(t, atts[0].IsInline)
	assert.Equal(t, "logo@acme.com", atts[0].ContentID)
	assert.Equal(t, "report.pdf", atts[1].Filename)

	// Re-syncing replaces the set wholesale.
	require.NoError(t, s.ReplaceAttachments(ctx, email.ID, []model.Attachment{
		{Filename: "amended.pdf", ContentType: "application/pdf", SizeBytes: 2048},
	}))

	atts, err = s.GetAttachments(ctx, email.ID)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "amended.pdf", atts[0].Filename)

	require.NoError(t, s.ReplaceAttachments(ctx, email.ID, nil))
	atts, err = s.GetAttachments(ctx, email.ID)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestCountEmailsPerConnection(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	connA := createConnection(t, s, "a@acme.com")
	connB := createConnection(t, s, "b@acme.com")
	require.NoError(t, s.UpsertEmails(ctx, []model.EmailMessage{
		testEmail(connA.ID, "one@acme.com"),
		testEmail(connA.ID, "two@acme.com"),
		testEmail(connB.ID, "three@acme.com"),
	}))

	countA, err := s.CountEmails(ctx, connA.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, countA)

	countB, err := s.CountEmails(ctx, connB.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countB)
}
