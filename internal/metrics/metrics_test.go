package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PassesTotal.Inc()
	m.PassDuration.Observe(1.5)
	m.ConnectionsSynced.Inc()
	m.ConnectionErrors.Inc()
	m.MessagesFetched.Add(3)
	m.MessagesUpserted.Add(3)
	m.BodiesStored.Add(2)
	m.OutboundSent.Inc()
	m.OutboundFailed.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"nubomail_sync_passes_total",
		"nubomail_sync_pass_duration_seconds",
		"nubomail_sync_connections_synced_total",
		"nubomail_sync_connection_errors_total",
		"nubomail_sync_messages_fetched_total",
		"nubomail_sync_messages_upserted_total",
		"nubomail_sync_bodies_stored_total",
		"nubomail_relay_sent_total",
		"nubomail_relay_failed_total",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}

	assert.Equal(t, float64(3), promtest.ToFloat64(m.MessagesFetched))
}

func TestSeparateRegistriesAreIndependent(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.PassesTotal.Inc()
	assert.Equal(t, float64(1), promtest.ToFloat64(a.PassesTotal))
	assert.Equal(t, float64(0), promtest.ToFloat64(b.PassesTotal))
}
