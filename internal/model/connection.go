package model

import "time"

// Protocol identifies how a mailbox connection retrieves mail.
type Protocol string

const (
	ProtocolIMAP Protocol = "imap"
	ProtocolPOP3 Protocol = "pop3"
)

// Connection status constants.
const (
	ConnectionActive   = "active"
	ConnectionDisabled = "disabled"
	ConnectionError    = "error"
)

// Connection is a mailbox account the service synchronizes on behalf of a
// workspace. Credentials are stored sealed; only the sync engine decrypts
// them, immediately before dialing.
type Connection struct {
	// ID is the internal unique identifier for this connection.
	ID string `json:"id"`

	// WorkspaceID is the tenant that owns the mailbox.
	WorkspaceID string `json:"workspace_id"`

	// Address is the mailbox address shown in the product (e.g. ops@acme.com).
	Address string `json:"address"`

	// Protocol selects the retrieval protocol (use Protocol* constants).
	Protocol Protocol `json:"protocol"`

	// Host and Port locate the retrieval (IMAP or POP3) server.
	Host string `json:"host"`
	Port int    `json:"port"`

	// SMTPHost and SMTPPort locate the submission server used for replies
	// sent from this mailbox.
	SMTPHost string `json:"smtp_host"`
	SMTPPort int    `json:"smtp_port"`

	// Username is the login name; often equal to Address.
	Username string `json:"username"`

	// PasswordEnc is the AES-GCM sealed password, base64-encoded. The
	// plaintext never touches the database.
	PasswordEnc string `json:"-"`

	// UseTLS selects implicit TLS when true, STARTTLS when false.
	UseTLS bool `json:"use_tls"`

	// Folders is an explicit include list of folders to synchronize.
	// Empty means every selectable folder the server advertises.
	Folders []string `json:"folders"`

	// Status is the lifecycle state (use Connection* constants).
	Status string `json:"status"`

	// LastSyncedAt is when the last successful sync pass touched this
	// connection. Nil until the first success.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// LastError is the message of the most recent sync failure, cleared on
	// the next success.
	LastError string `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
