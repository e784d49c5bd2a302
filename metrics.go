package server

import (
	"github.com/joeecarter/respondr-server/request"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respondr_records_inserted_total",
			Help: "Records written to the metric store",
		},
		[]string{"metric", "type"},
	)

	ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "respondr_ingest_total",
			Help: "Ingestion requests by flow and outcome",
		},
		[]string{"flow", "error_kind"},
	)

	fetchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "respondr_fetch_duration_seconds",
			Help:    "Health API fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	unclassifiedMetrics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "respondr_unclassified_metrics_total",
			Help: "Metrics without a known classification, stored as aggregated",
		},
	)
)

func init() {
	prometheus.MustRegister(
		recordsInserted,
		ingestTotal,
		fetchDurationSeconds,
		unclassifiedMetrics,
	)
}

// otherMetricLabel stands in for client supplied metric names outside the
// known set so label cardinality stays bounded.
const otherMetricLabel = "other"

func metricLabel(name string) string {
	if request.IsKnownMetric(name) {
		return name
	}
	return otherMetricLabel
}

func observeOutcome(flow string, result Result) {
	outcome := string(result.ErrorKind)
	if result.Success {
		outcome = "none"
	}
	ingestTotal.WithLabelValues(flow, outcome).Inc()
}
