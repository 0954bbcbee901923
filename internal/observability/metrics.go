package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mangafas_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SuspensionActions counts suspension lifecycle events by kind and action.
	SuspensionActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_suspension_actions_total",
		Help: "Total suspension actions by kind (site, comment) and action (issue, lift, expire)",
	}, []string{"kind", "action"})

	// ContentReviewDecisions counts moderation decisions on submitted content.
	ContentReviewDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_content_review_decisions_total",
		Help: "Total content review decisions by content kind and decision",
	}, []string{"kind", "decision"})

	// CommentModerationActions counts hide/restore/delete moderation actions.
	CommentModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_comment_moderation_actions_total",
		Help: "Total comment moderation actions by action type",
	}, []string{"action"})

	// NotificationsDelivered counts notifications delivered by type.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_notifications_delivered_total",
		Help: "Total notifications delivered by notification type",
	}, []string{"type"})

	// NotificationsEvicted counts inbox entries evicted past the cap.
	NotificationsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mangafas_notifications_evicted_total",
		Help: "Total notifications evicted from capped inboxes",
	})

	// ReportsFiled counts reports filed by target type.
	ReportsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_reports_filed_total",
		Help: "Total reports filed by target type",
	}, []string{"target_type"})

	// WebSocketConnectionsTotal is the gauge of active notification stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mangafas_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// NotificationStreamDrops counts live notifications dropped by reason.
	// Dropped messages are not lost for good, the inbox remains authoritative.
	NotificationStreamDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mangafas_notification_stream_drops_total",
		Help: "Total live notification messages dropped, by reason",
	}, []string{"reason"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
