package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hustlehut",
		Name:      "reservations_total",
		Help:      "Slot reservation attempts by outcome.",
	}, []string{"outcome"})

	settlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hustlehut",
		Name:      "settlements_total",
		Help:      "Payment settlements by outcome.",
	}, []string{"outcome"})

	sessionTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hustlehut",
		Name:      "session_transitions_total",
		Help:      "Session status transitions by target status.",
	}, []string{"status"})

	expiredSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hustlehut",
		Name:      "expired_sessions_total",
		Help:      "PENDING sessions removed after the payment window closed.",
	}, []string{"path"})

	withdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hustlehut",
		Name:      "withdrawals_total",
		Help:      "Withdrawal receipts written by balance sweeps.",
	})

	notificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hustlehut",
		Name:      "notification_failures_total",
		Help:      "Session emails that could not be delivered.",
	}, []string{"kind"})
)
