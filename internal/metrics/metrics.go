// Package metrics registers the daemon's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nubomail"

// Metrics holds the counters the daemon updates while syncing mailboxes and
// relaying outbound mail.
type Metrics struct {
	PassesTotal       prometheus.Counter
	PassDuration      prometheus.Histogram
	ConnectionsSynced prometheus.Counter
	ConnectionErrors  prometheus.Counter
	MessagesFetched   prometheus.Counter
	MessagesUpserted  prometheus.Counter
	BodiesStored      prometheus.Counter
	OutboundSent      prometheus.Counter
	OutboundFailed    prometheus.Counter
}

// New registers the daemon metrics on reg. Tests pass a fresh
// prometheus.NewRegistry to stay isolated from the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PassesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "passes_total",
			Help:      "Completed sync passes.",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of one sync pass over all connections.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 11),
		}),
		ConnectionsSynced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "connections_synced_total",
			Help:      "Mailbox connections synced without error.",
		}),
		ConnectionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "connection_errors_total",
			Help:      "Mailbox connections whose sync ended in an error.",
		}),
		MessagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "messages_fetched_total",
			Help:      "Messages fetched from upstream mailboxes.",
		}),
		MessagesUpserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "messages_upserted_total",
			Help:      "Message rows written to the database.",
		}),
		BodiesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "bodies_stored_total",
			Help:      "Message bodies written to the blob store.",
		}),
		OutboundSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "sent_total",
			Help:      "Outbound messages accepted by the SMTP relay.",
		}),
		OutboundFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "failed_total",
			Help:      "Outbound messages the SMTP relay rejected.",
		}),
	}
}

// Default registers the daemon metrics on the default Prometheus registerer.
func Default() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
