// Package metrics exposes prometheus counters and gauges describing the
// ledger, the mempool and the set of unspent outputs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "utxocoin"

var (
	blocksAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_appended_total",
			Help:      "Number of blocks appended to the local chain",
		},
	)
	blocksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_rejected_total",
			Help:      "Number of candidate blocks that failed validation",
		},
		[]string{
			"kind", // validation failure kind
		},
	)
	chainsAdopted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chains_adopted_total",
			Help:      "Number of heavier chains that replaced the local chain",
		},
	)
	chainsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chains_rejected_total",
			Help:      "Number of candidate chains that were invalid or not heavier",
		},
	)
	txsPooled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_pooled_total",
			Help:      "Number of transactions accepted into the mempool",
		},
	)
	txsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_pruned_total",
			Help:      "Number of transactions dropped from the mempool after a chain change",
		},
	)
	chainHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Index of the latest block",
		},
	)
	mempoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_size",
			Help:      "Number of pending transactions",
		},
	)
	utxoCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "utxo_count",
			Help:      "Number of unspent transaction outputs",
		},
	)
)

// Handler returns the http handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// BlockAppended records a new tip.
func BlockAppended(height uint64, utxos int) {
	blocksAppended.Inc()
	chainHeight.Set(float64(height))
	utxoCount.Set(float64(utxos))
}

// BlockRejected records a candidate block that failed validation.
func BlockRejected(kind string) {
	blocksRejected.WithLabelValues(kind).Inc()
}

// ChainAdopted records a chain replacement.
func ChainAdopted(height uint64, utxos int) {
	chainsAdopted.Inc()
	chainHeight.Set(float64(height))
	utxoCount.Set(float64(utxos))
}

// ChainRejected records a candidate chain that was not adopted.
func ChainRejected() {
	chainsRejected.Inc()
}

// TxPooled records a transaction entering the mempool.
func TxPooled(size int) {
	txsPooled.Inc()
	mempoolSize.Set(float64(size))
}

// TxPruned records transactions leaving the mempool.
func TxPruned(removed int, size int) {
	txsPruned.Add(float64(removed))
	mempoolSize.Set(float64(size))
}

// Chain resets the gauges describing the chain at startup.
func Chain(height uint64, utxos int) {
	chainHeight.Set(float64(height))
	utxoCount.Set(float64(utxos))
}
