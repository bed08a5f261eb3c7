// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Admission metrics
	VerdictsTotal *prometheus.CounterVec
	SoftScore     prometheus.Histogram

	// Queue metrics
	QueueDepth    prometheus.Gauge
	LedgerSize    prometheus.Gauge
	ArchiveSize   prometheus.Gauge
	Discovered    *prometheus.CounterVec
	Finalized     *prometheus.CounterVec
	RevivalsTotal prometheus.Counter

	// Position metrics
	OpenPositions   prometheus.Gauge
	BuysTotal       *prometheus.CounterVec
	PositionsClosed *prometheus.CounterVec
	SellFailures    prometheus.Counter
	RealizedPnLPct  prometheus.Histogram

	// Latency metrics
	TickDuration     prometheus.Histogram
	ExternalLatency  *prometheus.HistogramVec
	RPCCallLatency   *prometheus.HistogramVec
	ExternalFailures *prometheus.CounterVec

	// Persistence metrics
	PersistenceErrors  *prometheus.CounterVec
	PersistenceDropped *prometheus.CounterVec

	// Health metrics
	LastTick prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_sniper"
	}

	return &Metrics{
		// Admission metrics
		VerdictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "verdicts_total",
			Help:      "Total number of admission verdicts by kind and reason",
		}, []string{"kind", "reason"}),
		SoftScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "soft_score",
			Help:      "Soft score of accepted candidates",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),

		// Queue metrics
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of candidates waiting in the queue",
		}),
		LedgerSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "ledger_size",
			Help:      "Number of permanently ledgered addresses",
		}),
		ArchiveSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "revival",
			Name:      "archive_size",
			Help:      "Number of soft-rejected candidates awaiting rescan",
		}),
		Discovered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "admitted_total",
			Help:      "Total number of addresses admitted to the queue by source",
		}, []string{"source"}),
		Finalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "finalized_total",
			Help:      "Total number of addresses ledgered by reason",
		}, []string{"reason"}),
		RevivalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "revival",
			Name:      "promotions_total",
			Help:      "Total number of archived candidates promoted back to the gate",
		}),

		// Position metrics
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "open",
			Help:      "Number of open positions",
		}),
		BuysTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "buys_total",
			Help:      "Total number of buy attempts by status",
		}, []string{"status"}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "closed_total",
			Help:      "Total number of closed positions by exit reason",
		}, []string{"reason"}),
		SellFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "sell_failures_total",
			Help:      "Total number of failed exit sells",
		}),
		RealizedPnLPct: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "positions",
			Name:      "realized_pnl_pct",
			Help:      "Realized PnL percent of closed positions",
			Buckets:   []float64{-50, -20, -10, 0, 10, 20, 35, 50, 100, 200},
		}),

		// Latency metrics
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Engine tick duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		ExternalLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "external_call_latency_seconds",
			Help:      "Latency of collaborator calls (snapshot, score, buy, sell, discover)",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ExternalFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "external_call_failures_total",
			Help:      "Total number of failed collaborator calls",
		}, []string{"call"}),

		// Persistence metrics
		PersistenceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "errors_total",
			Help:      "Total number of failed persistence writes by record kind",
		}, []string{"kind"}),
		PersistenceDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "dropped_total",
			Help:      "Total number of records dropped because the write buffer was full",
		}, []string{"kind"}),

		// Health metrics
		LastTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_tick_timestamp",
			Help:      "Unix timestamp of the last completed engine tick",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordVerdict increments the verdict counter. Accept has an empty reason.
func RecordVerdict(kind, reason string) {
	DefaultMetrics.VerdictsTotal.WithLabelValues(kind, reason).Inc()
}

// RecordSoftScore records the soft score of an accepted candidate.
func RecordSoftScore(score int) {
	DefaultMetrics.SoftScore.Observe(float64(score))
}

// RecordAdmitted increments the admitted counter for a discovery source.
func RecordAdmitted(source string) {
	DefaultMetrics.Discovered.WithLabelValues(source).Inc()
}

// RecordFinalized increments the ledgered counter.
func RecordFinalized(reason string) {
	DefaultMetrics.Finalized.WithLabelValues(reason).Inc()
}

// RecordRevival increments the revival promotions counter.
func RecordRevival() {
	DefaultMetrics.RevivalsTotal.Inc()
}

// UpdateSizes updates queue, ledger, archive and position gauges.
func UpdateSizes(queueDepth, ledgerSize, archiveSize, openPositions int) {
	DefaultMetrics.QueueDepth.Set(float64(queueDepth))
	DefaultMetrics.LedgerSize.Set(float64(ledgerSize))
	DefaultMetrics.ArchiveSize.Set(float64(archiveSize))
	DefaultMetrics.OpenPositions.Set(float64(openPositions))
}

// RecordBuy records a buy attempt.
func RecordBuy(err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	DefaultMetrics.BuysTotal.WithLabelValues(status).Inc()
}

// RecordClose records a closed position.
func RecordClose(reason string, pnlPct float64) {
	DefaultMetrics.PositionsClosed.WithLabelValues(reason).Inc()
	DefaultMetrics.RealizedPnLPct.Observe(pnlPct)
}

// RecordSellFailure increments the sell failure counter.
func RecordSellFailure() {
	DefaultMetrics.SellFailures.Inc()
}

// RecordTick records tick duration and the completion timestamp.
func RecordTick(seconds float64, unix int64) {
	DefaultMetrics.TickDuration.Observe(seconds)
	DefaultMetrics.LastTick.Set(float64(unix))
}

// RecordExternalCall records collaborator call latency and failure.
func RecordExternalCall(call string, seconds float64, err error) {
	DefaultMetrics.ExternalLatency.WithLabelValues(call).Observe(seconds)
	if err != nil {
		DefaultMetrics.ExternalFailures.WithLabelValues(call).Inc()
	}
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordPersistenceError increments the persistence error counter.
func RecordPersistenceError(kind string) {
	DefaultMetrics.PersistenceErrors.WithLabelValues(kind).Inc()
}

// RecordPersistenceDropped increments the dropped records counter.
func RecordPersistenceDropped(kind string) {
	DefaultMetrics.PersistenceDropped.WithLabelValues(kind).Inc()
}
