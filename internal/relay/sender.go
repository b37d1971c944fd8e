// Package relay submits outbound messages to the upstream SMTP relay and
// records every delivery attempt.
package relay

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/metrics"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// Store is the slice of the data store the relay records deliveries in.
type Store interface {
	CreateOutbound(ctx context.Context, msg *model.OutboundMessage) error
	MarkOutboundSent(ctx context.Context, id, messageID string, sentAt time.Time) error
	MarkOutboundFailed(ctx context.Context, id, sendErr string) error
}

// Relay submits messages through a single upstream SMTP server.
type Relay struct {
	cfg     config.RelayConfig
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New returns a relay bound to the configured SMTP server.
func New(cfg config.RelayConfig, store Store, m *metrics.Metrics, logger *slog.Logger) *Relay {
	return &Relay{cfg: cfg, store: store, metrics: m, logger: logger}
}

// Send records, composes, and submits one outbound message. It returns the
// delivery identifier of the recorded message; the identifier stays valid
// when submission fails, so callers can look the failure up later.
func (r *Relay) Send(ctx context.Context, msg *model.OutboundMessage) (string, error) {
	if msg.FromAddress == "" {
		msg.FromAddress = r.cfg.From
	}
	if msg.FromAddress == "" {
		return "", fmt.Errorf("no sender address")
	}

	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return "", fmt.Errorf("no recipients")
	}

	if err := r.store.CreateOutbound(ctx, msg); err != nil {
		return "", fmt.Errorf("recording outbound message: %w", err)
	}

	messageID := generateMessageID(msg, r.cfg.Host)
	payload, err := compose(msg, messageID)
	if err != nil {
		return msg.ID, r.fail(ctx, msg.ID, fmt.Errorf("composing message: %w", err))
	}

	if err := r.submit(msg.FromAddress, recipients, payload); err != nil {
		return msg.ID, r.fail(ctx, msg.ID, err)
	}

	if err := r.store.MarkOutboundSent(ctx, msg.ID, messageID, time.Now().UTC()); err != nil {
		return msg.ID, fmt.Errorf("recording delivery: %w", err)
	}

	r.metrics.OutboundSent.Inc()
	r.logger.Info("message sent",
		slog.String("delivery_id", msg.ID),
		slog.String("message_id", messageID),
		slog.Int("recipients", len(recipients)))

	return msg.ID, nil
}

// fail marks the delivery failed and passes the original error through.
func (r *Relay) fail(ctx context.Context, id string, sendErr error) error {
	r.metrics.OutboundFailed.Inc()
	if err := r.store.MarkOutboundFailed(ctx, id, sendErr.Error()); err != nil {
		r.logger.Error("recording delivery failure",
			slog.String("delivery_id", id),
			slog.Any("error", err))
	}
	return sendErr
}

// submit hands the payload to the SMTP server for every recipient.
func (r *Relay) submit(from string, recipients []string, payload []byte) error {
	client, err := r.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := r.authenticate(client); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("setting sender %s: %w", from, err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("adding recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}

	return client.Quit()
}

// dial opens an SMTP session per the relay settings. StartTLS servers are
// dialed plain and upgraded, others connect over implicit TLS.
func (r *Relay) dial() (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port)

	if r.cfg.StartTLS {
		client, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", addr, err)
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: r.cfg.Host}); err != nil {
				client.Close()
				return nil, fmt.Errorf("starting TLS: %w", err)
			}
		}
		return client, nil
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: r.cfg.Host})
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, r.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("starting SMTP session: %w", err)
	}
	return client, nil
}

func (r *Relay) authenticate(client *smtp.Client) error {
	if r.cfg.Username == "" {
		return nil
	}
	auth := smtp.PlainAuth("", r.cfg.Username, r.cfg.Password, r.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authenticating as %s: %w", r.cfg.Username, err)
	}
	return nil
}

// Probe dials and authenticates against the SMTP server described by cfg
// without recording anything. Connection tests use it for per-account
// submission servers.
func Probe(cfg config.RelayConfig) error {
	r := &Relay{cfg: cfg}
	return r.TestConnection()
}

// TestConnection dials and authenticates against the relay without
// submitting anything.
func (r *Relay) TestConnection() error {
	client, err := r.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := r.authenticate(client); err != nil {
		return err
	}
	return client.Quit()
}
