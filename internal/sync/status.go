package sync

import (
	"sort"
	"sync"
	"time"
)

// ConnectionStatus is the last observed sync outcome of one connection.
type ConnectionStatus struct {
	ConnectionID string         `json:"connection_id"`
	Address      string         `json:"address"`
	Protocol     string         `json:"protocol"`
	Connected    bool           `json:"connected"`
	LastSyncAt   *time.Time     `json:"last_sync_at,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	Messages     int            `json:"messages"`
	Folders      map[string]int `json:"folders,omitempty"`
}

// Tracker keeps the latest status per connection for the admin endpoint.
type Tracker struct {
	mu       sync.Mutex
	statuses map[string]ConnectionStatus
}

// NewTracker returns an empty status tracker.
func NewTracker() *Tracker {
	return &Tracker{statuses: make(map[string]ConnectionStatus)}
}

// Record replaces the stored status for the connection.
func (t *Tracker) Record(status ConnectionStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[status.ConnectionID] = status
}

// Statuses returns a snapshot of every connection's status, ordered by
// mailbox address.
func (t *Tracker) Statuses() []ConnectionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ConnectionStatus, 0, len(t.statuses))
	for _, s := range t.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
