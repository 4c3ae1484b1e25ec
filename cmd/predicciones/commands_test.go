package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/simulator"
)

func TestDateRange(t *testing.T) {
	now := time.Date(2025, 6, 16, 14, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{name: "defaults to yesterday", wantStart: day(15), wantEnd: day(15)},
		{name: "single day", start: "2025-06-10", wantStart: day(10), wantEnd: day(10)},
		{name: "range", start: "2025-06-10", end: "2025-06-12", wantStart: day(10), wantEnd: day(12)},
		{name: "end before start", start: "2025-06-10", end: "2025-06-09", wantErr: true},
		{name: "bad start", start: "06/10/2025", wantErr: true},
		{name: "bad end", start: "2025-06-10", end: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := dateRange(tt.start, tt.end, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestMarketKind(t *testing.T) {
	tests := []struct {
		flag     string
		fallback string
		want     models.MarketKind
		wantErr  bool
	}{
		{"", "", "", false},
		{"over_under", "", models.MarketOverUnder, false},
		{"", "WINNER_LOSER", models.MarketWinnerLoser, false},
		{"WINNER_LOSER", "OVER_UNDER", models.MarketWinnerLoser, false},
		{"spread", "", "", true},
	}
	for _, tt := range tests {
		got, err := marketKind(tt.flag, tt.fallback)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSimulateSeedDefaultsToFixedValue(t *testing.T) {
	flag := simulateCmd.Flags().Lookup("seed")
	require.NotNil(t, flag)
	assert.Equal(t, "1", flag.DefValue)
	assert.NotZero(t, simulator.DefaultSeed, "zero seeds from the clock")
}
