package model

import "time"

// Domain verification status constants.
const (
	DomainPending  = "pending"
	DomainVerified = "verified"
	DomainFailed   = "failed"
)

// Domain check name constants.
const (
	CheckOwnership = "ownership"
	CheckMX        = "mx"
	CheckSPF       = "spf"
	CheckDKIM      = "dkim"
	CheckDMARC     = "dmarc"
)

// Domain is a customer mail domain whose DNS configuration the service
// verifies before outbound mail may use it.
type Domain struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`

	// Name is the bare domain, e.g. "acme.com".
	Name string `json:"name"`

	// VerificationToken is the value the customer publishes in the ownership
	// TXT record.
	VerificationToken string `json:"verification_token"`

	// Status is pending until verification passes (use Domain* constants).
	Status string `json:"status"`

	// LastCheckedAt is when verification last ran; LastResult holds the
	// per-check outcomes of that run.
	LastCheckedAt *time.Time    `json:"last_checked_at,omitempty"`
	LastResult    []DomainCheck `json:"last_result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DomainCheck is the outcome of a single DNS probe.
type DomainCheck struct {
	// Check names the probe (use Check* constants).
	Check string `json:"check"`

	// OK reports whether the expected record was found.
	OK bool `json:"ok"`

	// Expected and Found describe what the probe looked for and what the
	// zone actually returned.
	Expected string `json:"expected,omitempty"`
	Found    string `json:"found,omitempty"`

	// Detail carries the lookup error when the probe could not complete.
	Detail string `json:"detail,omitempty"`
}
