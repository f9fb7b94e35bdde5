package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crs_reservations_total",
			Help: "Total reservation attempts",
		},
		[]string{"outcome"},
	)

	SlotConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crs_slot_conflicts_total",
			Help: "Reservation attempts lost to an occupied window",
		},
	)

	HoldsReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crs_holds_reclaimed_total",
			Help: "Expired holds handed back to the pool",
		},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crs_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	NotifyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crs_notify_failures_total",
			Help: "Notification publish failures (best-effort, retried by outbox)",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crs_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
