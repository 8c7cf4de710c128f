package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics
var (
	QueueMessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_messages_processed_total",
			Help: "Total number of queue messages processed",
		},
		[]string{"result"}, // sent, retried, failed
	)

	QueueLeaseBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queue_lease_batch_size",
			Help:    "Number of messages leased per dispatcher tick",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	QueueTickErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_tick_errors_total",
			Help: "Total number of dispatcher ticks aborted by infrastructure errors",
		},
	)

	ProviderSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "provider_send_duration_seconds",
			Help:    "Duration of provider send calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of inbound webhook events",
		},
		[]string{"kind"}, // opt_out, coupon_accept, welcome, ignored
	)
)
