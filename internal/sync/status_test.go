package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerKeepsLatestStatus(t *testing.T) {
	tracker := NewTracker()

	tracker.Record(ConnectionStatus{ConnectionID: "c1", Address: "zeta@acme.com", Connected: false, LastError: "timeout"})
	tracker.Record(ConnectionStatus{ConnectionID: "c2", Address: "alpha@acme.com", Connected: true, Messages: 4})

	// A later pass over the same connection replaces its entry.
	tracker.Record(ConnectionStatus{ConnectionID: "c1", Address: "zeta@acme.com", Connected: true, Messages: 2})

	statuses := tracker.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "alpha@acme.com", statuses[0].Address)
	assert.Equal(t, "zeta@acme.com", statuses[1].Address)
	assert.True(t, statuses[1].Connected)
	assert.Empty(t, statuses[1].LastError)
	assert.Equal(t, 2, statuses[1].Messages)
}

func TestTrackerEmpty(t *testing.T) {
	assert.Empty(t, NewTracker().Statuses())
}
