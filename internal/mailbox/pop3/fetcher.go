// Package pop3 fetches mailbox messages over POP3.
package pop3

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/go-pop3"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
)

// dialTimeout bounds the TCP connect to the POP3 server.
const dialTimeout = 30 * time.Second

// Fetcher retrieves messages over POP3.
type Fetcher struct{}

var _ mailbox.Fetcher = (*Fetcher)(nil)

// New returns a POP3 fetcher.
func New() *Fetcher {
	return &Fetcher{}
}

// Name implements mailbox.Fetcher.
func (f *Fetcher) Name() string {
	return "pop3"
}

// Fetch lists the mailbox and hands the newest limit messages to the
// handler. POP3 exposes a single folder and no server-side date search, so
// every message maps to INBOX and callers filter by date after parsing.
func (f *Fetcher) Fetch(ctx context.Context, acct mailbox.Account, since time.Time, limit int, handler mailbox.Handler) error {
	c, err := connect(acct)
	if err != nil {
		return err
	}
	defer c.Quit()

	msgs, err := c.Uidl(0)
	if err != nil {
		return fmt.Errorf("listing messages: %w", err)
	}
	// Message numbers ascend with arrival order, so the tail is newest.
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf, err := c.RetrRaw(m.ID)
		if err != nil {
			return fmt.Errorf("retrieving message %d: %w", m.ID, err)
		}

		fetched := &mailbox.Fetched{
			Folder:    "INBOX",
			UID:       uint32(m.ID),
			RemoteID:  m.UID,
			SizeBytes: int64(m.Size),
			Raw:       buf.Bytes(),
		}
		if err := handler.Handle(ctx, fetched); err != nil {
			return err
		}
	}

	return nil
}

// connect dials the POP3 server and authenticates the account.
func connect(acct mailbox.Account) (*pop3.Conn, error) {
	p := pop3.New(pop3.Opt{
		Host:        acct.Host,
		Port:        acct.Port,
		TLSEnabled:  acct.UseTLS,
		DialTimeout: dialTimeout,
	})

	c, err := p.NewConn()
	if err != nil {
		return nil, fmt.Errorf("dialing %s:%d: %w", acct.Host, acct.Port, err)
	}

	if err := c.Auth(acct.Username, acct.Password); err != nil {
		c.Quit()
		return nil, &mailbox.AuthError{
			Protocol: "pop3",
			Message:  fmt.Sprintf("login as %s: %v", acct.Username, err),
		}
	}

	return c, nil
}

// TestConnection dials and authenticates the account, then checks the
// mailbox is listable.
func TestConnection(acct mailbox.Account) error {
	c, err := connect(acct)
	if err != nil {
		return err
	}
	defer c.Quit()

	if _, _, err := c.Stat(); err != nil {
		return fmt.Errorf("checking mailbox: %w", err)
	}
	return nil
}
