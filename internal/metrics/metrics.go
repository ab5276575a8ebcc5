// Package metrics provides Prometheus instrumentation for the Courtside
// client. It exposes counters for poll cycles and received messages, a
// histogram for poll latency, and gauges for live session state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PollCycles counts completed poll iterations, labeled by result:
	// "ok" or "error".
	PollCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courtside_poll_cycles_total",
		Help: "Total number of completed poll iterations",
	}, []string{"result"})

	// PollLatency records the round-trip latency of poll requests in seconds.
	PollLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "courtside_poll_latency_seconds",
		Help:    "Poll request round-trip latency in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	// MessagesReceived counts chat messages admitted to the local history.
	MessagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "courtside_messages_received_total",
		Help: "Total number of chat messages admitted to local history",
	})

	// ActiveSessions tracks the number of connected room sessions.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "courtside_active_sessions",
		Help: "Current number of connected room sessions",
	})

	// PushReconnects counts reconnect attempts on the push-channel path.
	PushReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "courtside_push_reconnects_total",
		Help: "Total number of push channel reconnect attempts",
	})
)

func init() {
	prometheus.MustRegister(
		PollCycles,
		PollLatency,
		MessagesReceived,
		ActiveSessions,
		PushReconnects,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
