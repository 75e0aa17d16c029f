package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokenbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_booking_transitions_total",
			Help: "Committed booking status transitions",
		},
		[]string{"from", "to"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_ledger_operations_total",
			Help: "Wallet ledger operations by outcome",
		},
		[]string{"operation", "result"},
	)

	TokensMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_ledger_tokens_total",
			Help: "Tokens moved by ledger operation",
		},
		[]string{"operation"},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_chat_messages_total",
			Help: "Chat messages persisted",
		},
		[]string{"source", "flagged"},
	)

	DisputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_disputes_total",
			Help: "Disputes filed and resolved",
		},
		[]string{"event", "type"},
	)

	TemplateSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_template_sends_total",
			Help: "Template messages sent by category",
		},
		[]string{"category"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokenbook_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokenbook_websocket_connections",
			Help: "Open real-time connections",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbook_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransition(from, to string) {
	BookingTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordLedger counts one ledger operation; tokens are only added on success.
func RecordLedger(operation string, amount int64, err error) {
	if err != nil {
		LedgerOperationsTotal.WithLabelValues(operation, "error").Inc()
		return
	}
	LedgerOperationsTotal.WithLabelValues(operation, "ok").Inc()
	TokensMovedTotal.WithLabelValues(operation).Add(float64(amount))
}

func RecordMessage(source string, flagged bool) {
	MessagesTotal.WithLabelValues(source, strconv.FormatBool(flagged)).Inc()
}

func RecordDispute(event, disputeType string) {
	DisputesTotal.WithLabelValues(event, disputeType).Inc()
}

func RecordTemplateSend(category string) {
	TemplateSendsTotal.WithLabelValues(category).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordEvent(routingKey, status string) {
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}
