package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal *prometheus.CounterVec
	votesTotal        *prometheus.CounterVec
	streamConnections prometheus.Gauge
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contest",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the voting API.",
		}, []string{"method", "path", "status"})

		votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contest",
			Name:      "votes_total",
			Help:      "Vote operations by outcome (accepted, duplicate, removed, failed).",
		}, []string{"outcome"})

		streamConnections = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "contest",
			Name:      "stream_connections",
			Help:      "Currently connected event stream listeners.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncVote(outcome string) {
	if votesTotal == nil {
		return
	}
	votesTotal.WithLabelValues(outcome).Inc()
}

func StreamConnected() {
	if streamConnections != nil {
		streamConnections.Inc()
	}
}

func StreamDisconnected() {
	if streamConnections != nil {
		streamConnections.Dec()
	}
}
