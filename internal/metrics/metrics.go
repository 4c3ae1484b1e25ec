// Package metrics provides the centralized Prometheus registry for the
// reconciliation pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "predicciones"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ConsensusImportedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consensus_imported_total",
		Help:      "Consensus records stored by the importer, by sport",
	}, []string{"sport"})
	ConsensusDuplicatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consensus_duplicates_total",
		Help:      "Consensus records dropped as repeated scrapes, by sport",
	}, []string{"sport"})
	ResultsFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "results_fetched_total",
		Help:      "Completed games fetched from a results source",
	}, []string{"source", "sport"})
	ResultsFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "results_fetch_errors_total",
		Help:      "Failed results fetches by error code",
	}, []string{"source", "code"})
	PairsMatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pairs_matched_total",
		Help:      "Results paired with a consensus record, by match strategy",
	}, []string{"sport", "strategy"})
	ResultsUnmatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "results_unmatched_total",
		Help:      "Results with no consensus record for a market kind",
	}, []string{"sport", "market_kind"})
	RecordsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_skipped_total",
		Help:      "Consensus records left out of analysis, by reason",
	}, []string{"sport", "reason"})
	OutcomesAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outcomes_applied_total",
		Help:      "Outcome updates written back onto consensus records",
	}, []string{"sport"})
	DataQualityWarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_quality_warnings_total",
		Help:      "Data-quality warnings raised on stored records, by field",
	}, []string{"field"})
	RowsPurgedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_purged_total",
		Help:      "Rows removed by the retention job, by table",
	}, []string{"table"})
)

// Gauge metrics
var (
	LastAccuracyPct = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_accuracy_pct",
		Help:      "Accuracy of the most recent effectiveness report",
	}, []string{"sport", "market_kind"})
	LastReportPairs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_report_pairs",
		Help:      "Matched pairs counted by the most recent effectiveness report",
	}, []string{"sport", "market_kind"})
)

// Histogram metrics
var (
	LinkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "link_duration_seconds",
		Help:      "Duration of linking runs in seconds",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "results_fetch_duration_seconds",
		Help:      "Duration of results fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(ConsensusImportedTotal)
		registry.MustRegister(ConsensusDuplicatesTotal)
		registry.MustRegister(ResultsFetchedTotal)
		registry.MustRegister(ResultsFetchErrorsTotal)
		registry.MustRegister(PairsMatchedTotal)
		registry.MustRegister(ResultsUnmatchedTotal)
		registry.MustRegister(RecordsSkippedTotal)
		registry.MustRegister(OutcomesAppliedTotal)
		registry.MustRegister(DataQualityWarningsTotal)
		registry.MustRegister(RowsPurgedTotal)

		// Register gauge metrics
		registry.MustRegister(LastAccuracyPct)
		registry.MustRegister(LastReportPairs)

		// Register histogram metrics
		registry.MustRegister(LinkDuration)
		registry.MustRegister(FetchDuration)

		// Register simulation metrics
		registry.MustRegister(SimulationRunsTotal)
		registry.MustRegister(SimulationFinalBalance)
		registry.MustRegister(SimulationReturnPct)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordImported records consensus rows stored and dropped as duplicates.
func RecordImported(sport string, stored, duplicates int) {
	ConsensusImportedTotal.WithLabelValues(sport).Add(float64(stored))
	ConsensusDuplicatesTotal.WithLabelValues(sport).Add(float64(duplicates))
}

// RecordResultsFetched records a successful fetch.
func RecordResultsFetched(source, sport string, count int, durationSeconds float64) {
	ResultsFetchedTotal.WithLabelValues(source, sport).Add(float64(count))
	FetchDuration.Observe(durationSeconds)
}

// RecordFetchError records a failed fetch by error code.
func RecordFetchError(source, code string) {
	ResultsFetchErrorsTotal.WithLabelValues(source, code).Inc()
}

// RecordMatches records matched pairs for one strategy.
func RecordMatches(sport, strategy string, count int) {
	PairsMatchedTotal.WithLabelValues(sport, strategy).Add(float64(count))
}

// RecordUnmatched records a result with no consensus record.
func RecordUnmatched(sport, marketKind string) {
	ResultsUnmatchedTotal.WithLabelValues(sport, marketKind).Inc()
}

// RecordSkipped records a consensus record left out of analysis.
func RecordSkipped(sport, reason string) {
	RecordsSkippedTotal.WithLabelValues(sport, reason).Inc()
}

// RecordOutcomesApplied records outcome updates written to storage.
func RecordOutcomesApplied(sport string, count int) {
	OutcomesAppliedTotal.WithLabelValues(sport).Add(float64(count))
}

// RecordWarning records one data-quality warning.
func RecordWarning(field string) {
	DataQualityWarningsTotal.WithLabelValues(field).Inc()
}

// RecordPurge records rows removed by retention.
func RecordPurge(table string, rows int64) {
	RowsPurgedTotal.WithLabelValues(table).Add(float64(rows))
}

// RecordLinkDuration records the duration of a linking run.
func RecordLinkDuration(durationSeconds float64) {
	LinkDuration.Observe(durationSeconds)
}

// UpdateReport publishes the headline numbers of an effectiveness report.
// marketKind "all" is used for combined reports.
func UpdateReport(sport, marketKind string, pairs int, accuracyPct float64) {
	LastReportPairs.WithLabelValues(sport, marketKind).Set(float64(pairs))
	LastAccuracyPct.WithLabelValues(sport, marketKind).Set(accuracyPct)
}
