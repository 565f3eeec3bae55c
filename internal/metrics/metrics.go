// Package metrics provides Prometheus metrics for the collab server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics
	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collab_ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	roomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collab_rooms_active",
			Help: "Number of live rooms",
		},
	)

	// Protocol metrics
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_events_total",
			Help: "Total inbound protocol events",
		},
		[]string{"event"},
	)

	broadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_broadcasts_total",
			Help: "Total outbound broadcast messages",
		},
		[]string{"event"},
	)

	operationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_operation_errors_total",
			Help: "Total operation errors reported to clients",
		},
		[]string{"event"},
	)

	// Commit metrics
	commitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_commits_total",
			Help: "Total milestone commits",
		},
		[]string{"result"},
	)

	// Agent metrics
	agentInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_agent_invocations_total",
			Help: "Total agent service invocations",
		},
		[]string{"agent", "result"},
	)

	agentInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collab_agent_invocation_duration_seconds",
			Help:    "Agent service invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetWSConnectionsActive sets the number of active WebSocket connections.
func SetWSConnectionsActive(count int) {
	wsConnectionsActive.Set(float64(count))
}

// SetRoomsActive sets the number of live rooms.
func SetRoomsActive(count int) {
	roomsActive.Set(float64(count))
}

// RecordEvent records an inbound protocol event.
func RecordEvent(event string) {
	eventsTotal.WithLabelValues(event).Inc()
}

// RecordBroadcast records an outbound broadcast message.
func RecordBroadcast(event string) {
	broadcastsTotal.WithLabelValues(event).Inc()
}

// RecordOperationError records an error reported to a client.
func RecordOperationError(event string) {
	operationErrorsTotal.WithLabelValues(event).Inc()
}

// RecordCommit records a milestone commit outcome.
func RecordCommit(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	commitsTotal.WithLabelValues(result).Inc()
}

// RecordAgentInvocation records an agent invocation outcome.
func RecordAgentInvocation(agent string, duration time.Duration, success bool) {
	agentInvocationDuration.WithLabelValues(agent).Observe(duration.Seconds())
	result := "success"
	if !success {
		result = "error"
	}
	agentInvocationsTotal.WithLabelValues(agent, result).Inc()
}
