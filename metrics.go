package octo

import "github.com/prometheus/client_golang/prometheus"

var ItemsIntegrated = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "octo",
	Subsystem: "doc",
	Name:      "items_integrated",
}, []string{"source", "content"})

var Transactions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "octo",
	Subsystem: "doc",
	Name:      "transactions",
}, []string{"result"})

var UpdatesApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "octo",
	Subsystem: "doc",
	Name:      "updates_applied",
}, []string{"result"})

var PendingItems = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "octo",
	Subsystem: "doc",
	Name:      "pending_items",
	Buckets:   []float64{0, 1, 10, 100, 1000, 10000, 100000},
})

var docsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "octo",
	Subsystem: "doc",
	Name:      "open",
})

// Collectors returns the metrics of the package for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ItemsIntegrated,
		Transactions,
		UpdatesApplied,
		PendingItems,
		docsOpen,
		SyncMessages,
	}
}

func countItem(txn *Txn, it *Item) {
	source := "remote"
	if txn.local {
		source = "local"
	}
	ItemsIntegrated.WithLabelValues(source, it.Content.Tag.String()).Inc()
}
