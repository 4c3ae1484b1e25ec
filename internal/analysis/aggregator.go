// Package analysis computes how often following the consensus was right.
package analysis

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// BreakevenPct is the hit rate needed to profit at standard -110 pricing.
// It is reported next to computed accuracy and never used in the math.
const BreakevenPct = 52.38

// BucketRange is an inclusive range of dominant percentages
type BucketRange struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

// Label renders the range as "60-69"
func (r BucketRange) Label() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Contains reports whether pct falls inside the range
func (r BucketRange) Contains(pct int) bool {
	return pct >= r.Min && pct <= r.Max
}

// DefaultBuckets partitions the 50-100 range into confidence bands
var DefaultBuckets = []BucketRange{
	{Min: 50, Max: 59},
	{Min: 60, Max: 69},
	{Min: 70, Max: 79},
	{Min: 80, Max: 89},
	{Min: 90, Max: 100},
}

// ValidateBuckets rejects empty or overlapping ranges
func ValidateBuckets(ranges []BucketRange) error {
	for i, r := range ranges {
		if r.Min > r.Max {
			return fmt.Errorf("bucket %s has min above max", r.Label())
		}
		for _, other := range ranges[:i] {
			if r.Min <= other.Max && other.Min <= r.Max {
				return fmt.Errorf("bucket %s overlaps %s", r.Label(), other.Label())
			}
		}
	}
	return nil
}

// Bucket is the accuracy of pairs whose dominant percentage fell in Range
type Bucket struct {
	Range       BucketRange `json:"range"`
	Label       string      `json:"label"`
	Total       int         `json:"total"`
	Correct     int         `json:"correct"`
	AccuracyPct float64     `json:"accuracy_pct"`
}

// MarketSummary is the accuracy for one market kind
type MarketSummary struct {
	Kind        models.MarketKind `json:"market_kind"`
	Total       int               `json:"total"`
	Correct     int               `json:"correct"`
	AccuracyPct float64           `json:"accuracy_pct"`
}

// TotalsBias compares how often the public picked over or under with how
// often each actually happened.
type TotalsBias struct {
	OverPredictions    int     `json:"over_predictions"`
	UnderPredictions   int     `json:"under_predictions"`
	OverResults        int     `json:"over_results"`
	UnderResults       int     `json:"under_results"`
	OverCorrect        int     `json:"over_correct"`
	UnderCorrect       int     `json:"under_correct"`
	OverPredictionPct  float64 `json:"over_prediction_pct"`
	UnderPredictionPct float64 `json:"under_prediction_pct"`
	OverResultPct      float64 `json:"over_result_pct"`
	UnderResultPct     float64 `json:"under_result_pct"`
	OverAccuracyPct    float64 `json:"over_accuracy_pct"`
	UnderAccuracyPct   float64 `json:"under_accuracy_pct"`
}

// Report is the effectiveness of a set of matched pairs. A report is always
// well formed, including for an empty input.
type Report struct {
	Scope          string           `json:"scope"`
	Total          int              `json:"total"`
	Correct        int              `json:"correct"`
	AccuracyPct    float64          `json:"accuracy_pct"`
	BreakevenPct   float64          `json:"breakeven_pct"`
	AboveBreakeven bool             `json:"above_breakeven"`
	Buckets        []Bucket         `json:"buckets,omitempty"`
	Unbucketed     int              `json:"unbucketed"`
	Markets        []MarketSummary  `json:"markets"`
	Totals         *TotalsBias      `json:"totals_bias,omitempty"`
	Skipped        int              `json:"skipped"`
	Warnings       []models.Warning `json:"warnings,omitempty"`
}

// Options selects the pairs and partitions for a report
type Options struct {
	Scope string
	// Kind restricts the report to one market; empty means all markets
	Kind models.MarketKind
	// Buckets enables confidence partitioning when non-empty
	Buckets []BucketRange
}

// Accuracy returns correct/total as a percentage, 0 for an empty set
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Aggregate computes a report over pairs. It does not modify its input and
// keeps no state between calls.
func Aggregate(pairs []*models.MatchedPair, opts Options) Report {
	report := Report{
		Scope:        opts.Scope,
		BreakevenPct: BreakevenPct,
		Markets:      []MarketSummary{},
	}

	buckets := make([]Bucket, len(opts.Buckets))
	for i, r := range opts.Buckets {
		buckets[i] = Bucket{Range: r, Label: r.Label()}
	}
	markets := map[models.MarketKind]*MarketSummary{}
	var bias TotalsBias
	sawTotals := false

	for _, pair := range pairs {
		if pair == nil || pair.Consensus == nil {
			continue
		}
		if opts.Kind != "" && pair.Kind() != opts.Kind {
			continue
		}

		report.Total++
		if pair.Correct {
			report.Correct++
		}

		placed := false
		for i := range buckets {
			if buckets[i].Range.Contains(pair.DominantPct) {
				buckets[i].Total++
				if pair.Correct {
					buckets[i].Correct++
				}
				placed = true
				break
			}
		}
		if !placed && len(buckets) > 0 {
			report.Unbucketed++
		}

		summary, ok := markets[pair.Kind()]
		if !ok {
			summary = &MarketSummary{Kind: pair.Kind()}
			markets[pair.Kind()] = summary
		}
		summary.Total++
		if pair.Correct {
			summary.Correct++
		}

		if pair.Kind() == models.MarketOverUnder {
			sawTotals = true
			bias.add(pair)
		}
	}

	report.AccuracyPct = Accuracy(report.Correct, report.Total)
	report.AboveBreakeven = report.AccuracyPct > BreakevenPct

	for i := range buckets {
		buckets[i].AccuracyPct = Accuracy(buckets[i].Correct, buckets[i].Total)
	}
	if len(buckets) > 0 {
		report.Buckets = buckets
	}

	for _, kind := range []models.MarketKind{models.MarketWinnerLoser, models.MarketOverUnder} {
		if summary, ok := markets[kind]; ok {
			summary.AccuracyPct = Accuracy(summary.Correct, summary.Total)
			report.Markets = append(report.Markets, *summary)
		}
	}

	if sawTotals {
		bias.finish()
		report.Totals = &bias
	}
	return report
}

func (b *TotalsBias) add(pair *models.MatchedPair) {
	switch pair.Prediction {
	case models.SideOver:
		b.OverPredictions++
		if pair.Correct {
			b.OverCorrect++
		}
	case models.SideUnder:
		b.UnderPredictions++
		if pair.Correct {
			b.UnderCorrect++
		}
	}
	switch pair.Outcome {
	case models.SideOver:
		b.OverResults++
	case models.SideUnder:
		b.UnderResults++
	}
}

func (b *TotalsBias) finish() {
	predictions := b.OverPredictions + b.UnderPredictions
	results := b.OverResults + b.UnderResults
	b.OverPredictionPct = Accuracy(b.OverPredictions, predictions)
	b.UnderPredictionPct = Accuracy(b.UnderPredictions, predictions)
	b.OverResultPct = Accuracy(b.OverResults, results)
	b.UnderResultPct = Accuracy(b.UnderResults, results)
	b.OverAccuracyPct = Accuracy(b.OverCorrect, b.OverPredictions)
	b.UnderAccuracyPct = Accuracy(b.UnderCorrect, b.UnderPredictions)
}

// Aggregator wraps Aggregate with logging of every computed report
type Aggregator struct {
	buckets []BucketRange
	log     *logger.AnalysisLogger
}

// NewAggregator creates an aggregator. Nil buckets disable partitioning.
func NewAggregator(buckets []BucketRange, log *logrus.Logger) *Aggregator {
	return &Aggregator{
		buckets: buckets,
		log:     logger.NewAnalysisLogger(log),
	}
}

// Run computes the report for one market kind (or all when kind is empty)
// and attaches the skipped count and data-quality warnings.
func (a *Aggregator) Run(scope string, kind models.MarketKind, pairs []*models.MatchedPair, skipped int, warnings []models.Warning) Report {
	report := Aggregate(pairs, Options{Scope: scope, Kind: kind, Buckets: a.buckets})
	report.Skipped = skipped
	report.Warnings = warnings
	a.log.LogEffectiveness(scope, report.Total, report.Correct, report.Skipped, report.AccuracyPct, report.BreakevenPct)
	return report
}
