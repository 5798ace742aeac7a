package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(exchangesTotal, exchangeLatencyMs) }

var exchangesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chat_exchanges_total",
		Help: "AI message exchanges by status (ok/error).",
	},
	[]string{"status"},
)

var exchangeLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chat_exchange_latency_ms",
		Help:    "AI exchange round-trip latency in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	},
	[]string{"status"},
)

func ObserveExchange(status string, latency time.Duration) {
	exchangesTotal.WithLabelValues(norm(status)).Inc()
	exchangeLatencyMs.WithLabelValues(norm(status)).Observe(float64(latency / time.Millisecond))
}
