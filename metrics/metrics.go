// Package metrics holds the Prometheus collectors shared by the store,
// rotation, and accumulator packages. promauto registers each collector
// against prometheus.DefaultRegisterer at init, the same way the rest of
// this module's corpus wires up metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RowsWritten = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_store_rows_written_total",
	Help: "Total rows encoded into store files.",
})

var BytesMapped = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rill_store_bytes_mapped",
	Help: "Size in bytes of the most recently written store file.",
})

var RotationsRun = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_rotation_runs_total",
	Help: "Total rotation passes that completed (passes skipped for lock contention are not counted).",
})

var RotationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_rotation_skipped_total",
	Help: "Rotation passes skipped due to lock contention.",
})

var FilesExpired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_rotation_files_expired_total",
	Help: "Store files removed for exceeding the retention horizon.",
})

var FilesMerged = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_rotation_files_merged_total",
	Help: "Store files consumed by a quantum merge.",
})

var AccumulatorLost = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_accumulator_lost_total",
	Help: "Rows overwritten by the producer before being drained.",
})

var AccumulatorDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rill_accumulator_depth",
	Help: "Approximate number of rows ingested but not yet drained.",
})

var DictionaryMergeCommon = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rill_store_merge_dictionary_common_total",
	Help: "Values found already present in the running dictionary while merging store files.",
})
