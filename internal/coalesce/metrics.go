package coalesce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are intentionally simple. inFlight is only moved in Trigger/run
// under the single-flight invariant, so it is effectively a 0/1 gauge.
var (
	refreshesStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Subsystem: "coalesce",
			Name:      "refreshes_started_total",
			Help:      "Fetches actually issued against the backend.",
		},
		[]string{"resource"},
	)

	refreshesCoalescedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Subsystem: "coalesce",
			Name:      "refreshes_coalesced_total",
			Help:      "Triggers that attached to an already in-flight fetch.",
		},
		[]string{"resource"},
	)

	refreshesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Subsystem: "coalesce",
			Name:      "refreshes_failed_total",
			Help:      "Fetches that returned an error.",
		},
		[]string{"resource"},
	)

	refreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inboxfw",
			Subsystem: "coalesce",
			Name:      "refresh_duration_seconds",
			Help:      "Fetch latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	inFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inboxfw",
			Subsystem: "coalesce",
			Name:      "in_flight",
			Help:      "Whether a fetch is currently in flight (0 or 1).",
		},
		[]string{"resource"},
	)
)
