package inboxfw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Name:      "sessions_total",
			Help:      "Session lifecycle transitions.",
		},
		[]string{"event"}, // login, logout, resume
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inboxfw",
			Name:      "action_item_toggles_total",
			Help:      "Action-item toggle writes by outcome.",
		},
		[]string{"result"}, // ok, error
	)
)
