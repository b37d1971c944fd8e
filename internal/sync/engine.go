// Package sync pulls mail from every active connection into the database
// and blob store on a fixed schedule.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/blob"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/crypto"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/metrics"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// upsertBatchSize is how many messages accumulate before a database write.
const upsertBatchSize = 50

// Store is the slice of the data store the engine reads and writes.
type Store interface {
	ListActiveConnections(ctx context.Context) ([]model.Connection, error)
	UpdateConnectionSync(ctx context.Context, id string, syncedAt time.Time, syncErr error) error
	UpsertEmails(ctx context.Context, emails []model.EmailMessage) error
	GetEmailByMessageID(ctx context.Context, connectionID, messageID string) (*model.EmailMessage, error)
	ReplaceAttachments(ctx context.Context, emailID string, atts []model.Attachment) error
}

// Engine syncs mailbox connections one at a time.
type Engine struct {
	store     Store
	blobs     blob.Store
	fetchers  mailbox.Factory
	encryptor *crypto.Encryptor
	metrics   *metrics.Metrics
	tracker   *Tracker
	logger    *slog.Logger

	window       time.Duration
	limit        int
	snippetRunes int
}

// NewEngine wires a sync engine from its dependencies.
func NewEngine(cfg config.SyncConfig, st Store, blobs blob.Store, fetchers mailbox.Factory, encryptor *crypto.Encryptor, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		store:        st,
		blobs:        blobs,
		fetchers:     fetchers,
		encryptor:    encryptor,
		metrics:      m,
		tracker:      NewTracker(),
		logger:       logger,
		window:       time.Duration(cfg.WindowDays) * 24 * time.Hour,
		limit:        cfg.BatchLimit,
		snippetRunes: cfg.SnippetLength,
	}
}

// Tracker exposes the per-connection statuses gathered while syncing.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// PassResult summarizes one sync pass.
type PassResult struct {
	Connections int
	Synced      int
	Failed      int
	Messages    int
	Duration    time.Duration
}

// RunPass syncs every active connection once, sequentially. A connection
// failure is logged and recorded without stopping the pass; only listing
// the connections can fail the pass itself.
func (e *Engine) RunPass(ctx context.Context) (*PassResult, error) {
	start := time.Now()

	connections, err := e.store.ListActiveConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	result := &PassResult{Connections: len(connections)}
	for _, conn := range connections {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		count, folders, syncErr := e.syncConnection(ctx, conn)
		result.Messages += count
		syncedAt := time.Now().UTC()

		if recErr := e.store.UpdateConnectionSync(ctx, conn.ID, syncedAt, syncErr); recErr != nil {
			e.logger.Error("recording sync outcome",
				slog.String("connection_id", conn.ID),
				slog.Any("error", recErr))
		}

		status := ConnectionStatus{
			ConnectionID: conn.ID,
			Address:      conn.Address,
			Protocol:     string(conn.Protocol),
			Connected:    syncErr == nil || !mailbox.IsAuthError(syncErr),
			LastSyncAt:   &syncedAt,
			Messages:     count,
			Folders:      folders,
		}

		if syncErr != nil {
			result.Failed++
			e.metrics.ConnectionErrors.Inc()
			status.LastError = syncErr.Error()
			e.logger.Error("mailbox sync failed",
				slog.String("connection_id", conn.ID),
				slog.String("address", conn.Address),
				slog.Any("error", syncErr))
		} else {
			result.Synced++
			e.metrics.ConnectionsSynced.Inc()
			e.logger.Info("mailbox synced",
				slog.String("address", conn.Address),
				slog.Int("messages", count))
		}
		e.tracker.Record(status)
	}

	result.Duration = time.Since(start)
	e.metrics.PassesTotal.Inc()
	e.metrics.PassDuration.Observe(result.Duration.Seconds())
	return result, nil
}

// syncConnection pulls one mailbox and reports how many messages it wrote,
// per folder. Messages fetched before a failure are still flushed.
func (e *Engine) syncConnection(ctx context.Context, conn model.Connection) (int, map[string]int, error) {
	password, err := e.encryptor.Decrypt(conn.PasswordEnc)
	if err != nil {
		return 0, nil, fmt.Errorf("decrypting credentials: %w", err)
	}

	acct := mailbox.Account{
		ID:       conn.ID,
		Address:  conn.Address,
		Protocol: conn.Protocol,
		Host:     conn.Host,
		Port:     conn.Port,
		Username: conn.Username,
		Password: string(password),
		UseTLS:   conn.UseTLS,
		Folders:  conn.Folders,
	}

	fetcher, err := e.fetchers.FetcherFor(acct)
	if err != nil {
		return 0, nil, err
	}

	since := time.Now().UTC().Add(-e.window)
	b := e.newBatcher(conn.ID, since)

	fetchErr := fetcher.Fetch(ctx, acct, since, e.limit, b)

	if err := b.flush(ctx); err != nil {
		if fetchErr != nil {
			e.logger.Error("flushing after fetch failure",
				slog.String("connection_id", conn.ID),
				slog.Any("error", err))
			return b.total, b.folders, fetchErr
		}
		return b.total, b.folders, err
	}
	return b.total, b.folders, fetchErr
}

// batcher accumulates fetched messages and writes them out in batches.
type batcher struct {
	engine       *Engine
	connectionID string
	since        time.Time

	pending     []model.EmailMessage
	attachments map[string][]model.Attachment
	folders     map[string]int
	total       int
}

var _ mailbox.Handler = (*batcher)(nil)

func (e *Engine) newBatcher(connectionID string, since time.Time) *batcher {
	return &batcher{
		engine:       e,
		connectionID: connectionID,
		since:        since,
		attachments:  make(map[string][]model.Attachment),
		folders:      make(map[string]int),
	}
}

// Handle implements mailbox.Handler. It parses the raw message, stores its
// body, and queues the metadata row for the next batch write.
func (b *batcher) Handle(ctx context.Context, msg *mailbox.Fetched) error {
	b.engine.metrics.MessagesFetched.Inc()

	parsed := mailbox.Parse(msg.Raw)
	env := mergeEnvelopes(msg.Envelope, parsed.Envelope)

	sentAt := msg.InternalDate
	if sentAt.IsZero() {
		sentAt = env.Date
	}
	// A fetcher without server-side date search hands over everything; drop
	// messages older than the window here.
	if msg.InternalDate.IsZero() && !env.Date.IsZero() && env.Date.Before(b.since) {
		return nil
	}

	messageID := mailbox.CanonicalMessageID(env.MessageID)
	if messageID == "" && msg.RemoteID != "" {
		messageID = "uidl-" + msg.RemoteID
	}
	if messageID == "" {
		messageID = model.SyntheticMessageID(msg.Folder, msg.UID)
	}

	var bodyKey string
	if len(msg.Raw) > 0 {
		bodyKey = blob.BodyKey(b.connectionID, messageID)
		if err := b.engine.blobs.Put(ctx, bodyKey, "message/rfc822", msg.Raw); err != nil {
			return fmt.Errorf("storing body %s: %w", bodyKey, err)
		}
		b.engine.metrics.BodiesStored.Inc()
	}

	size := msg.SizeBytes
	if size == 0 {
		size = int64(len(msg.Raw))
	}

	isRead, isStarred, labels := mailbox.FlagState(msg.Flags)

	email := model.EmailMessage{
		ConnectionID:   b.connectionID,
		Folder:         msg.Folder,
		UID:            msg.UID,
		MessageID:      messageID,
		Subject:        env.Subject,
		FromName:       env.FromName,
		FromAddress:    env.FromAddr,
		ToAddresses:    env.To,
		CcAddresses:    env.Cc,
		ReplyTo:        env.ReplyTo,
		SentAt:         sentAt,
		IsRead:         isRead,
		IsStarred:      isStarred,
		Labels:         labels,
		Snippet:        parsed.Snippet(b.engine.snippetRunes),
		BodyKey:        bodyKey,
		SizeBytes:      size,
		HasAttachments: parsed.HasRealAttachments(),
		FetchedAt:      time.Now().UTC(),
	}

	if len(parsed.Attachments) > 0 {
		atts := make([]model.Attachment, 0, len(parsed.Attachments))
		for _, a := range parsed.Attachments {
			atts = append(atts, model.Attachment{
				Filename:    a.Filename,
				ContentType: a.ContentType,
				SizeBytes:   a.SizeBytes,
				IsInline:    a.IsInline,
				ContentID:   a.ContentID,
			})
		}
		b.attachments[messageID] = atts
	}

	b.pending = append(b.pending, email)
	b.folders[msg.Folder]++
	b.total++

	if len(b.pending) >= upsertBatchSize {
		return b.flush(ctx)
	}
	return nil
}

// flush writes the pending batch and attaches parts to the persisted rows.
func (b *batcher) flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	if err := b.engine.store.UpsertEmails(ctx, b.pending); err != nil {
		return fmt.Errorf("upserting %d messages: %w", len(b.pending), err)
	}
	b.engine.metrics.MessagesUpserted.Add(float64(len(b.pending)))

	// Upserts of already known messages keep the original row id, so look
	// the rows up before replacing their attachment lists.
	for messageID, atts := range b.attachments {
		email, err := b.engine.store.GetEmailByMessageID(ctx, b.connectionID, messageID)
		if err != nil {
			return fmt.Errorf("loading message %s for attachments: %w", messageID, err)
		}
		if err := b.engine.store.ReplaceAttachments(ctx, email.ID, atts); err != nil {
			return fmt.Errorf("replacing attachments of %s: %w", messageID, err)
		}
	}

	b.pending = b.pending[:0]
	clear(b.attachments)
	return nil
}

// mergeEnvelopes prefers the server-provided envelope and fills its gaps
// from the parsed message headers.
func mergeEnvelopes(server, parsed mailbox.Envelope) mailbox.Envelope {
	merged := server
	if merged.MessageID == "" {
		merged.MessageID = parsed.MessageID
	}
	if merged.Subject == "" {
		merged.Subject = parsed.Subject
	}
	if merged.FromAddr == "" {
		merged.FromAddr = parsed.FromAddr
		merged.FromName = parsed.FromName
	}
	if len(merged.To) == 0 {
		merged.To = parsed.To
	}
	if len(merged.Cc) == 0 {
		merged.Cc = parsed.Cc
	}
	if merged.ReplyTo == "" {
		merged.ReplyTo = parsed.ReplyTo
	}
	if merged.Date.IsZero() {
		merged.Date = parsed.Date
	}
	return merged
}
