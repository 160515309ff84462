package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BargainsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargain_created_total",
		Help: "Bargain requests opened by buyers",
	})

	BargainTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bargain_transitions_total",
		Help: "Committed bargain status transitions",
	}, []string{"to"})

	BargainStaleWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargain_stale_writes_total",
		Help: "Transitions lost to a concurrent writer",
	})

	BargainsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargain_expired_total",
		Help: "Bargains moved to expired by the sweeper or a lazy check",
	})

	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bargain_settlements_total",
		Help: "Settlement attempts by payment method and outcome",
	}, []string{"method", "result"})

	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bargain_settlement_duration_seconds",
		Help:    "Wall time of the settlement transaction",
		Buckets: prometheus.DefBuckets,
	})

	WalletMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_movements_total",
		Help: "Wallet debits and credits",
	}, []string{"direction", "reason"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bargain_sweep_runs_total",
		Help: "Expiry sweeper passes",
	}, []string{"status"})
)
