package simulator

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

func pair(date string, pct int, correct bool) *models.MatchedPair {
	return &models.MatchedPair{
		Consensus: &models.ConsensusRecord{
			ID:        uuid.New(),
			Sport:     "mlb",
			EventDate: date,
			Kind:      models.MarketWinnerLoser,
		},
		Prediction:  models.SideTeamA,
		DominantPct: pct,
		Outcome:     models.SideTeamA,
		Correct:     correct,
	}
}

func testConfig() Config {
	return Config{
		InitialBalance: decimal.NewFromInt(1000),
		Stake:          decimal.NewFromInt(20),
		Payout:         decimal.RequireFromString("1.8"),
		Threshold:      60,
	}
}

func TestSimulateScenario(t *testing.T) {
	pairs := []*models.MatchedPair{
		pair("2025-06-01", 74, true),
		pair("2025-06-02", 55, true),
		pair("2025-06-03", 61, false),
		pair("2025-06-04", 59, false),
		pair("2025-06-05", 80, true),
	}

	summary := Simulate(pairs, testConfig())

	assert.Equal(t, StateCompleted, summary.FinalState)
	assert.True(t, summary.FinalBalance.Equal(decimal.NewFromInt(1012)), "final balance %s", summary.FinalBalance)
	assert.True(t, summary.NetProfit.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, 3, summary.BetCount)
	assert.Equal(t, 2, summary.WinCount)
	assert.Equal(t, 1, summary.LossCount)
	assert.Equal(t, 3, summary.EligibleCount)
	assert.InDelta(t, 1.2, summary.PctReturn, 1e-9)
	assert.InDelta(t, 66.6667, summary.HitRatePct, 1e-9)

	want := []string{"1000", "1016", "996", "1012"}
	require.Len(t, summary.BalanceHistory, len(want))
	for i, w := range want {
		assert.True(t, summary.BalanceHistory[i].Equal(decimal.RequireFromString(w)), "history[%d] = %s", i, summary.BalanceHistory[i])
	}
}

func TestThresholdIsInclusive(t *testing.T) {
	summary := Simulate([]*models.MatchedPair{pair("2025-06-01", 60, true)}, testConfig())
	assert.Equal(t, 1, summary.BetCount)

	summary = Simulate([]*models.MatchedPair{pair("2025-06-01", 59, true)}, testConfig())
	assert.Equal(t, 0, summary.BetCount)
}

func TestSimulateSortsByEventDate(t *testing.T) {
	late := pair("2025-06-10", 70, false)
	early := pair("2025-06-01", 70, true)
	sameDayFirst := pair("2025-06-05", 70, true)
	sameDaySecond := pair("2025-06-05", 70, false)

	summary := Simulate([]*models.MatchedPair{late, sameDayFirst, early, sameDaySecond}, testConfig())
	require.Len(t, summary.Bets, 4)
	assert.Equal(t, early.Consensus.ID, summary.Bets[0].ConsensusID)
	assert.Equal(t, sameDayFirst.Consensus.ID, summary.Bets[1].ConsensusID)
	assert.Equal(t, sameDaySecond.Consensus.ID, summary.Bets[2].ConsensusID)
	assert.Equal(t, late.Consensus.ID, summary.Bets[3].ConsensusID)
}

func TestStopInsufficientFunds(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBalance = decimal.NewFromInt(50)

	pairs := []*models.MatchedPair{
		pair("2025-06-01", 70, false),
		pair("2025-06-02", 70, false),
		pair("2025-06-03", 70, true),
	}
	summary := Simulate(pairs, cfg)

	assert.Equal(t, StateStoppedInsufficientFunds, summary.FinalState)
	assert.Equal(t, 2, summary.BetCount)
	assert.True(t, summary.FinalBalance.Equal(decimal.NewFromInt(10)))
	assert.InDelta(t, -80.0, summary.PctReturn, 1e-9)
	assert.InDelta(t, 80.0, summary.MaxDrawdownPct, 1e-9)
}

func TestStopMaxBets(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBets = 2

	pairs := []*models.MatchedPair{
		pair("2025-06-01", 70, true),
		pair("2025-06-02", 70, true),
		pair("2025-06-03", 70, true),
	}
	summary := Simulate(pairs, cfg)

	assert.Equal(t, StateStoppedMaxBets, summary.FinalState)
	assert.Equal(t, 2, summary.BetCount)
	assert.Equal(t, 3, summary.EligibleCount)
	assert.Len(t, summary.BalanceHistory, 3)
}

func TestBalanceBelowStakeAfterLastBetCompletes(t *testing.T) {
	cfg := testConfig()
	cfg.InitialBalance = decimal.NewFromInt(20)

	summary := Simulate([]*models.MatchedPair{pair("2025-06-01", 70, false)}, cfg)
	assert.Equal(t, StateCompleted, summary.FinalState)
	assert.True(t, summary.FinalBalance.IsZero())
}

func TestSimulateEmptyInput(t *testing.T) {
	summary := Simulate(nil, testConfig())

	assert.Equal(t, StateCompleted, summary.FinalState)
	assert.Equal(t, 0, summary.BetCount)
	assert.Equal(t, 0.0, summary.PctReturn)
	assert.Equal(t, 0.0, summary.HitRatePct)
	require.Len(t, summary.BalanceHistory, 1)
	assert.True(t, summary.BalanceHistory[0].Equal(decimal.NewFromInt(1000)))
}

func TestSimulateDeterministic(t *testing.T) {
	pairs := []*models.MatchedPair{
		pair("2025-06-03", 64, true),
		pair("2025-06-01", 91, false),
		pair("2025-06-02", 77, true),
		pair("2025-06-02", 68, true),
	}

	first, err := json.Marshal(Simulate(pairs, testConfig()))
	require.NoError(t, err)
	second, err := json.Marshal(Simulate(pairs, testConfig()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestStateTransitionsAreFinal(t *testing.T) {
	state := NewSimulationState(decimal.NewFromInt(100))
	assert.Equal(t, StateRunning, state.State)
	assert.False(t, state.State.Terminal())

	state.Stop(StateStoppedMaxBets)
	state.Stop(StateCompleted)
	assert.Equal(t, StateStoppedMaxBets, state.State)
	assert.True(t, state.State.Terminal())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero balance", func(c *Config) { c.InitialBalance = decimal.Zero }, true},
		{"negative stake", func(c *Config) { c.Stake = decimal.NewFromInt(-1) }, true},
		{"zero payout", func(c *Config) { c.Payout = decimal.Zero }, true},
		{"threshold above 100", func(c *Config) { c.Threshold = 101 }, true},
		{"negative max bets", func(c *Config) { c.MaxBets = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestSimulatorRun(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	sim, err := NewSimulator(testConfig(), log)
	require.NoError(t, err)

	summary := sim.Run("run-1", []*models.MatchedPair{pair("2025-06-01", 74, true)})
	assert.Equal(t, 1, summary.WinCount)

	_, err = NewSimulator(Config{}, log)
	assert.Error(t, err)
}

func TestBalanceCurveCSV(t *testing.T) {
	summary := Simulate([]*models.MatchedPair{pair("2025-06-01", 74, true)}, testConfig())
	csv := summary.Curve.ToCSV()
	assert.Equal(t, "bet,event_date,balance\n0,,1000.00\n1,2025-06-01,1016.00\n", csv)
}
