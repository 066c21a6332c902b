// Package monitoring exposes Prometheus metrics and store health snapshots.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComparisonsTotal counts pairwise record comparisons by operation.
	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dedupe",
			Subsystem: "engine",
			Name:      "comparisons_total",
			Help:      "Total number of pairwise record comparisons",
		},
		[]string{"operation"},
	)

	// PairsTotal counts scored pairs by classification.
	PairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dedupe",
			Subsystem: "engine",
			Name:      "pairs_total",
			Help:      "Total number of scored pairs by classification",
		},
		[]string{"operation", "classification"},
	)

	// ScanDuration tracks collection scan duration in seconds.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dedupe",
			Subsystem: "engine",
			Name:      "scan_duration_seconds",
			Help:      "Duration of collection scans in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"blocking"},
	)

	// GroupsTotal counts duplicate groups produced by scans.
	GroupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dedupe",
			Subsystem: "engine",
			Name:      "groups_total",
			Help:      "Total number of duplicate groups produced by scans",
		},
	)

	// MergesTotal counts merge requests by outcome.
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dedupe",
			Subsystem: "merge",
			Name:      "requests_total",
			Help:      "Total number of merge requests by status",
		},
		[]string{"status"},
	)

	// ConfigUpdatesTotal counts configuration updates by outcome.
	ConfigUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dedupe",
			Subsystem: "config",
			Name:      "updates_total",
			Help:      "Total number of engine configuration updates by status",
		},
		[]string{"status"},
	)

	// StoreRecords reports the record count seen by the last snapshot.
	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dedupe",
			Subsystem: "store",
			Name:      "records",
			Help:      "Number of records in the store at the last snapshot",
		},
		[]string{"scope"},
	)
)
