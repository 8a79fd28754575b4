// Package metrics registers the ledger engine's Prometheus collectors on the
// default registry. Exposition is left to the embedding binary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerAppends counts appended wallet transactions by type and strategy.
var LedgerAppends = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dms",
	Subsystem: "ledger",
	Name:      "appends_total",
	Help:      "Total wallet transactions appended.",
}, []string{"type", "strategy"})

// LedgerBackdated counts appends that landed before existing transactions.
var LedgerBackdated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dms",
	Subsystem: "ledger",
	Name:      "backdated_total",
	Help:      "Total appends dated before an existing transaction.",
})

// LedgerRecalcRows tracks how many rows a full recalculation rewrites.
var LedgerRecalcRows = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dms",
	Subsystem: "ledger",
	Name:      "recalc_rows",
	Help:      "Rows rewritten per full recalculation.",
	Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
})

// LedgerDriftRepairs counts automatic recalculations triggered by a failed
// post-append consistency check.
var LedgerDriftRepairs = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dms",
	Subsystem: "ledger",
	Name:      "drift_repairs_total",
	Help:      "Automatic recalculations triggered by balance drift.",
})

// LedgerLockTimeouts counts account lock acquisitions that hit the bounded
// wait and failed fast.
var LedgerLockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "dms",
	Subsystem: "ledger",
	Name:      "lock_timeouts_total",
	Help:      "Account lock acquisitions that timed out.",
})
