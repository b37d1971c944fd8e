// Package imap fetches mailbox messages over IMAP.
package imap

import (
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
)

// connect dials the IMAP server and authenticates the account. TLS accounts
// connect over implicit TLS, others upgrade with STARTTLS.
func connect(acct mailbox.Account) (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", acct.Host, acct.Port)

	var (
		c   *imapclient.Client
		err error
	)
	if acct.UseTLS {
		c, err = imapclient.DialTLS(addr, nil)
	} else {
		c, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	if err := c.Login(acct.Username, acct.Password).Wait(); err != nil {
		c.Close()
		return nil, &mailbox.AuthError{
			Protocol: "imap",
			Message:  fmt.Sprintf("login as %s: %v", acct.Username, err),
		}
	}

	return c, nil
}

// TestConnection dials and authenticates the account, then selects INBOX
// to verify the account is usable for syncing.
func TestConnection(acct mailbox.Account) error {
	c, err := connect(acct)
	if err != nil {
		return err
	}
	defer c.Logout().Wait()

	if _, err := c.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}
	return nil
}
