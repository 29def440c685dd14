package planapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK        = "ok"
	outcomeAPIError  = "api_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
)

var requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "coach21k",
	Subsystem: "planapi",
	Name:      "request_duration_seconds",
	Help:      "Latency of planning API calls, labeled by endpoint and outcome.",
	Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), //nolint:mnd // 10ms up to ~80s for plan generation.
}, []string{"endpoint", "outcome"})

func init() {
	prometheus.MustRegister(requestDuration)
}

func observe(endpoint, outcome string, started time.Time) {
	requestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(started).Seconds())
}
