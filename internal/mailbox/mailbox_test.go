package mailbox

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalMessageID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"angle brackets stripped", "<abc-123@mail.example.com>", "abc-123@mail.example.com"},
		{"whitespace and brackets", "  <a@b>  ", "a@b"},
		{"already bare", "a@b", "a@b"},
		{"empty", "", ""},
		{"brackets only", "<>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalMessageID(tt.raw))
		})
	}
}

func TestFlagState(t *testing.T) {
	isRead, isStarred, labels := FlagState([]string{`\Seen`, `\Flagged`, "work", "travel"})
	assert.True(t, isRead)
	assert.True(t, isStarred)
	assert.Equal(t, []string{"work", "travel"}, labels)

	isRead, isStarred, labels = FlagState(nil)
	assert.False(t, isRead)
	assert.False(t, isStarred)
	assert.Nil(t, labels)

	// System flags other than \Seen and \Flagged are not surfaced as labels.
	_, _, labels = FlagState([]string{`\Answered`, `\Deleted`, `\NonStandard`})
	assert.Nil(t, labels)
}

func TestIsAuthError(t *testing.T) {
	authErr := &AuthError{Protocol: "imap", Message: "login as pat: denied"}
	assert.True(t, IsAuthError(authErr))
	assert.True(t, IsAuthError(fmt.Errorf("syncing mailbox: %w", authErr)))
	assert.False(t, IsAuthError(fmt.Errorf("connection refused")))
	assert.Contains(t, authErr.Error(), "imap authentication failed")
}
