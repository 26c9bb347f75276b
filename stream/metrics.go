package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Subsystem: "stream",
			Name:      "events_total",
			Help:      "Push events received, by tag.",
		},
		[]string{"tag"},
	)

	reconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Times the subscription dropped and entered backoff.",
		},
	)
)
