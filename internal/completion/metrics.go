package completion

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeSynced    = "synced"
	outcomeFailed    = "failed"
	outcomeAbandoned = "abandoned"
)

var syncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coach21k",
	Subsystem: "completion",
	Name:      "syncs_total",
	Help:      "Attempts to deliver workout completions to the planning API, labeled by outcome.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(syncsTotal)
}
