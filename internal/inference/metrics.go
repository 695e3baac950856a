package inference

import "github.com/prometheus/client_golang/prometheus"

var (
	generateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Generate calls by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	generateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatd",
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Duration of backend generate calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "chatd",
			Subsystem: "inference",
			Name:      "breaker_open",
			Help:      "1 while the backend circuit breaker is open",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(generateTotal, generateDuration, breakerState)
}
