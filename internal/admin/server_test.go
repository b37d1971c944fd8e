package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/logger"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/sync"
)

func newTestServer(t *testing.T) (*Server, *sync.Tracker) {
	t.Helper()
	tracker := sync.NewTracker()
	srv := New(config.AdminConfig{Addr: ":0"}, 2*time.Minute, "test-build", tracker, logger.Discard())
	return srv, tracker
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	srv, tracker := newTestServer(t)

	syncedAt := time.Now().UTC()
	tracker.Record(sync.ConnectionStatus{
		ConnectionID: "c1",
		Address:      "ops@acme.com",
		Protocol:     "imap",
		Connected:    true,
		LastSyncAt:   &syncedAt,
		Messages:     12,
	})
	tracker.Record(sync.ConnectionStatus{
		ConnectionID: "c2",
		Address:      "billing@acme.com",
		Protocol:     "pop3",
		LastError:    "pop3 authentication failed: bad password",
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "nubomaild", status.Service)
	assert.Equal(t, "test-build", status.Version)
	assert.Equal(t, "2m0s", status.Interval)
	require.Len(t, status.Connections, 2)
	assert.Equal(t, "billing@acme.com", status.Connections[0].Address)
	assert.False(t, status.Connections[0].Connected)
	assert.Equal(t, "ops@acme.com", status.Connections[1].Address)
	assert.True(t, status.Connections[1].Connected)
	assert.Equal(t, 12, status.Connections[1].Messages)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestUnknownMethodRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
