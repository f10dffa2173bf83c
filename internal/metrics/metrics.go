package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest metrics
	eventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_events_total",
			Help: "Total number of events submitted by source, action and outcome",
		},
		[]string{"source", "action", "status"},
	)

	eventApplyTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrkt_indexer_event_apply_duration_seconds",
			Help:    "Duration of applying one event",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ledgerWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_ledger_write_failures_total",
			Help: "Total number of ledger rows that could not be written",
		},
		[]string{"table"},
	)

	publishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_publish_failures_total",
			Help: "Total number of applied events that could not be published",
		},
	)

	// Scanner metrics
	scannerHeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mrkt_indexer_scanner_height",
			Help: "Scanner heights: the persisted checkpoint and the current target",
		},
		[]string{"kind"},
	)

	blocksScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_blocks_scanned_total",
			Help: "Total number of heights fully processed by the scanner",
		},
	)

	// Stream metrics
	streamState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mrkt_indexer_stream_state",
			Help: "Stream driver state (1 for the current state, 0 otherwise)",
		},
		[]string{"state"},
	)

	streamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_stream_reconnects_total",
			Help: "Total number of stream reconnect attempts",
		},
	)

	streamMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_stream_messages_total",
			Help: "Total number of messages received from the subscription",
		},
	)

	// Materialization metrics
	metadataFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mrkt_indexer_metadata_fetch_failures_total",
			Help: "Total number of nft metadata documents that could not be fetched",
		},
	)

	// System metrics
	uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mrkt_indexer_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mrkt_indexer_goroutines",
			Help: "Number of active goroutines",
		},
	)

	startTime = time.Now()
)

func EventInc(source, action, status string) {
	eventsApplied.WithLabelValues(source, action, status).Inc()
}

func EventDuration(source string, duration time.Duration) {
	eventApplyTime.WithLabelValues(source).Observe(duration.Seconds())
}

func LedgerWriteFailureInc(table string) {
	ledgerWriteFailures.WithLabelValues(table).Inc()
}

func PublishFailureInc() {
	publishFailures.Inc()
}

func ScannerCheckpointSet(height uint64) {
	scannerHeight.WithLabelValues("checkpoint").Set(float64(height))
}

func ScannerTargetSet(height uint64) {
	scannerHeight.WithLabelValues("target").Set(float64(height))
}

func BlocksScannedInc() {
	blocksScanned.Inc()
}

// StreamStateSet marks state as the current stream state among states
func StreamStateSet(state string, states []string) {
	for _, s := range states {
		value := float64(0)
		if s == state {
			value = 1
		}
		streamState.WithLabelValues(s).Set(value)
	}
}

func StreamReconnectInc() {
	streamReconnects.Inc()
}

func StreamMessageInc() {
	streamMessages.Inc()
}

func MetadataFailureInc() {
	metadataFailures.Inc()
}

// UpdateSystemMetrics refreshes the runtime gauges
func UpdateSystemMetrics() {
	uptime.Set(time.Since(startTime).Seconds())
	goroutines.Set(float64(runtime.NumGoroutine()))
}
