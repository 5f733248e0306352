package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered once at package init against the default
// Prometheus registry, the same global-registry convention
// promauto.NewCounterVec assumes; promhttp.Handler() in rpc/server.go
// serves them.
var (
	RPCRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quible",
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "JSON-RPC calls received, by method and outcome.",
	}, []string{"method", "outcome"})

	SlotTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quible",
		Subsystem: "proposer",
		Name:      "slot_ticks_total",
		Help:      "Slot ticks attempted by the block proposer.",
	})

	SlotTransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quible",
		Subsystem: "proposer",
		Name:      "slot_transactions_total",
		Help:      "Mempool transactions resolved per slot, by outcome.",
	}, []string{"outcome"})
)
