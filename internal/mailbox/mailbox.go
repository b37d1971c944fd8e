// Package mailbox retrieves messages from customer mailboxes over IMAP or
// POP3. Fetchers stream raw messages to a handler; parsing into metadata
// happens in this package, persistence in the sync engine.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// Account is the dialing snapshot for one mailbox connection, with the
// password already decrypted. It never outlives a single fetch.
type Account struct {
	ID       string
	Address  string
	Protocol model.Protocol
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool

	// Folders is the explicit include list; empty means every selectable
	// folder the server advertises.
	Folders []string
}

// Envelope carries the server-provided envelope fields. POP3 provides none;
// Parse fills the gaps from the message headers.
type Envelope struct {
	MessageID string
	Subject   string
	FromName  string
	FromAddr  string
	To        []string
	Cc        []string
	ReplyTo   string
	Date      time.Time
}

// Fetched is one retrieved message before parsing.
type Fetched struct {
	Folder string

	// UID is the server-assigned message number. For POP3 this is the
	// session-local sequence number; RemoteID carries the permanent UIDL.
	UID      uint32
	RemoteID string

	Flags        []string
	InternalDate time.Time
	SizeBytes    int64
	Envelope     Envelope

	// Raw is the full RFC 822 message.
	Raw []byte
}

// Handler consumes fetched messages one at a time.
type Handler interface {
	Handle(ctx context.Context, msg *Fetched) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *Fetched) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, msg *Fetched) error {
	return f(ctx, msg)
}

// Fetcher retrieves messages for one account and streams them to a handler.
type Fetcher interface {
	// Name identifies the protocol implementation in logs.
	Name() string

	// Fetch retrieves messages newer than since, at most limit per folder
	// (newest first), and passes each one to the handler. A handler error
	// aborts the fetch.
	Fetch(ctx context.Context, acct Account, since time.Time, limit int, handler Handler) error
}

// Factory resolves the fetcher for an account's protocol.
type Factory interface {
	FetcherFor(acct Account) (Fetcher, error)
}

// AuthError reports that a mail server rejected our credentials.
type AuthError struct {
	Protocol string
	Message  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %s", e.Protocol, e.Message)
}

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// CanonicalMessageID normalizes a Message-ID header value: surrounding
// whitespace and angle brackets are stripped so IMAP envelopes and parsed
// headers produce the same identity.
func CanonicalMessageID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return id
}

// FlagState splits IMAP flags into the read/starred booleans and the custom
// keyword labels the metadata rows keep.
func FlagState(flags []string) (isRead, isStarred bool, labels []string) {
	for _, flag := range flags {
		switch flag {
		case `\Seen`:
			isRead = true
		case `\Flagged`:
			isStarred = true
		case `\Answered`, `\Deleted`, `\Draft`, `\Recent`:
			// Other system flags are not surfaced.
		default:
			if !strings.HasPrefix(flag, `\`) {
				labels = append(labels, flag)
			}
		}
	}
	return isRead, isStarred, labels
}
