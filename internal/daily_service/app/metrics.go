package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	daySessionOpensCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "merchant_day",
			Name:      "session_opens_total",
			Help:      "Business-day sessions opened (including same-day re-opens).",
		},
	)

	daySessionClosesCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "merchant_day",
			Name:      "session_closes_total",
			Help:      "Business-day sessions closed.",
		},
	)

	daySessionDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "merchant_day",
			Name:      "session_duration_hours",
			Help:      "Duration of closed business-day sessions in hours.",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 12, 16, 24},
		},
	)

	firstLoginsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "merchant_day",
			Name:      "first_logins_total",
			Help:      "First logins of a calendar day recorded.",
		},
	)
)
