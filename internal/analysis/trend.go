package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// TrendConfig splits the season into rolling windows
type TrendConfig struct {
	WindowDays int
	// StepDays defaults to WindowDays, giving disjoint windows
	StepDays int
	// MinPairs drops windows with fewer pairs
	MinPairs int
	Kind     models.MarketKind
}

// TrendWindow is the accuracy of pairs whose game fell in [Start, End]
type TrendWindow struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// Trend is the accuracy over time. ConsistencyPct is the share of windows
// above breakeven.
type Trend struct {
	Scope          string        `json:"scope"`
	WindowDays     int           `json:"window_days"`
	StepDays       int           `json:"step_days"`
	Windows        []TrendWindow `json:"windows"`
	ConsistencyPct float64       `json:"consistency_pct"`
	Undated        int           `json:"undated"`
}

// RollingAccuracy buckets pairs by event date into windows from the first
// to the last game. Pairs with an unreadable date are counted as undated.
func RollingAccuracy(pairs []*models.MatchedPair, scope string, cfg TrendConfig) (Trend, error) {
	if cfg.WindowDays <= 0 {
		return Trend{}, fmt.Errorf("window days must be positive, got %d", cfg.WindowDays)
	}
	if cfg.StepDays <= 0 {
		cfg.StepDays = cfg.WindowDays
	}
	trend := Trend{Scope: scope, WindowDays: cfg.WindowDays, StepDays: cfg.StepDays, Windows: []TrendWindow{}}

	type dated struct {
		day  time.Time
		pair *models.MatchedPair
	}
	var items []dated
	for _, p := range pairs {
		if p == nil || p.Consensus == nil {
			continue
		}
		if cfg.Kind != "" && p.Kind() != cfg.Kind {
			continue
		}
		day, err := time.Parse(models.DateLayout, p.EventDate())
		if err != nil {
			trend.Undated++
			continue
		}
		items = append(items, dated{day: day, pair: p})
	}
	if len(items) == 0 {
		return trend, nil
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].day.Before(items[j].day) })

	first, last := items[0].day, items[len(items)-1].day
	above := 0
	for start := first; !start.After(last); start = start.AddDate(0, 0, cfg.StepDays) {
		end := start.AddDate(0, 0, cfg.WindowDays-1)
		w := TrendWindow{Start: start.Format(models.DateLayout), End: end.Format(models.DateLayout)}
		for _, it := range items {
			if it.day.Before(start) || it.day.After(end) {
				continue
			}
			w.Total++
			if it.pair.Correct {
				w.Correct++
			}
		}
		if w.Total == 0 || w.Total < cfg.MinPairs {
			continue
		}
		w.AccuracyPct = Accuracy(w.Correct, w.Total)
		if w.AccuracyPct > BreakevenPct {
			above++
		}
		trend.Windows = append(trend.Windows, w)
	}
	trend.ConsistencyPct = Accuracy(above, len(trend.Windows))
	return trend, nil
}
