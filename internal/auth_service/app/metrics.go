package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authAttemptsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "merchant_auth",
			Name:      "attempts_total",
			Help:      "Total phone+PIN authentication attempts.",
		},
		[]string{"result"}, // "success", "invalid_pin", "locked", "unknown_phone"
	)

	lockoutsTriggeredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "merchant_auth",
			Name:      "lockouts_triggered_total",
			Help:      "Accounts locked after exceeding the PIN failure threshold.",
		},
	)

	challengeVerificationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "merchant_auth",
			Name:      "challenge_verifications_total",
			Help:      "Knowledge-challenge verification outcomes.",
		},
		[]string{"result"}, // "match", "mismatch", "missing"
	)
)
