package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapetl_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"stage", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapetl_run_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~410s
		},
		[]string{"stage"},
	)

	RowsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapetl_rows_extracted_total",
			Help: "Total number of source rows written to snapshots",
		},
		[]string{"table"},
	)

	RowsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapetl_rows_built_total",
			Help: "Total number of dimension and fact rows built",
		},
		[]string{"table"},
	)

	SnapshotFilesScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapetl_snapshot_files_scanned_total",
			Help: "Total number of snapshot files read while scanning history",
		},
		[]string{"table"},
	)
)

// WriteTextfile writes the default registry in the text exposition format,
// for collection by the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
