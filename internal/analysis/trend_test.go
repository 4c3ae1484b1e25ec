package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

func datedPair(date string, kind models.MarketKind, correct bool) *models.MatchedPair {
	p := winnerPair(65, correct)
	p.Consensus.EventDate = date
	p.Consensus.Kind = kind
	return p
}

func TestRollingAccuracyDisjointWindows(t *testing.T) {
	pairs := []*models.MatchedPair{
		datedPair("2025-06-03", models.MarketWinnerLoser, true),
		datedPair("2025-06-01", models.MarketWinnerLoser, true),
		datedPair("2025-06-08", models.MarketWinnerLoser, false),
		datedPair("2025-06-09", models.MarketWinnerLoser, false),
		datedPair("2025-06-10", models.MarketWinnerLoser, true),
		datedPair("2025-06-20", models.MarketWinnerLoser, true),
	}

	trend, err := RollingAccuracy(pairs, "mlb", TrendConfig{WindowDays: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, trend.StepDays)

	tests := []struct {
		start    string
		end      string
		total    int
		accuracy float64
	}{
		{"2025-06-01", "2025-06-07", 2, 100},
		{"2025-06-08", "2025-06-14", 3, 100.0 / 3},
		{"2025-06-15", "2025-06-21", 1, 100},
	}
	require.Len(t, trend.Windows, len(tests))
	for i, tt := range tests {
		w := trend.Windows[i]
		assert.Equal(t, tt.start, w.Start)
		assert.Equal(t, tt.end, w.End)
		assert.Equal(t, tt.total, w.Total)
		assert.InDelta(t, tt.accuracy, w.AccuracyPct, 1e-9)
	}
	assert.InDelta(t, 200.0/3, trend.ConsistencyPct, 1e-9)
}

func TestRollingAccuracyFilters(t *testing.T) {
	pairs := []*models.MatchedPair{
		datedPair("2025-06-01", models.MarketWinnerLoser, true),
		datedPair("2025-06-02", models.MarketOverUnder, false),
		datedPair("2025-06-03", models.MarketOverUnder, true),
		datedPair("junio 4", models.MarketOverUnder, true),
	}

	trend, err := RollingAccuracy(pairs, "mlb/OVER_UNDER", TrendConfig{WindowDays: 3, StepDays: 1, MinPairs: 2, Kind: models.MarketOverUnder})
	require.NoError(t, err)
	assert.Equal(t, 1, trend.Undated)
	require.Len(t, trend.Windows, 1)
	assert.Equal(t, "2025-06-02", trend.Windows[0].Start)
	assert.Equal(t, 2, trend.Windows[0].Total)
	assert.Equal(t, 0.0, trend.ConsistencyPct)
}

func TestRollingAccuracyEmptyAndInvalid(t *testing.T) {
	trend, err := RollingAccuracy(nil, "mlb", TrendConfig{WindowDays: 7})
	require.NoError(t, err)
	assert.Empty(t, trend.Windows)
	assert.Equal(t, 0.0, trend.ConsistencyPct)

	_, err = RollingAccuracy(nil, "mlb", TrendConfig{})
	assert.Error(t, err)
}
