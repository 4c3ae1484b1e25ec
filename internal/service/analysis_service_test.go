package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
	"github.com/josema3054/predicciones-deportivas/internal/simulator"
)

func linkedRepo(t *testing.T) *fakeConsensusRepo {
	t.Helper()
	consensusRepo, resultRepo := seedLinking()
	unreadable := winnerRecord("LAD", "SF", "2025-06-29", "n/a", "n/a")
	consensusRepo.records = append(consensusRepo.records, unreadable)

	_, _, err := newTestLinking(consensusRepo, resultRepo).Link(context.Background(), "mlb")
	require.NoError(t, err)
	require.NotNil(t, unreadable.Outcome, "unreadable shares still get an outcome")
	return consensusRepo
}

func newTestAnalysis(repo *fakeConsensusRepo, runs repository.SimulationRunRepository) *AnalysisService {
	log := quietLogger()
	svc := NewAnalysisService(repo, runs, analysis.NewAggregator(analysis.DefaultBuckets, log),
		NewDataValidator(normalize.NewRegistry(), log), log)
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func testSimConfig() simulator.Config {
	return simulator.Config{
		InitialBalance: decimal.NewFromInt(1000),
		Stake:          decimal.NewFromInt(20),
		Payout:         decimal.RequireFromString("1.8"),
		Threshold:      60,
	}
}

func TestEffectiveness(t *testing.T) {
	svc := newTestAnalysis(linkedRepo(t), &fakeRunRepo{})

	report, err := svc.Effectiveness(context.Background(), "mlb", "")
	require.NoError(t, err)
	assert.Equal(t, "mlb", report.Scope)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Correct)
	assert.Equal(t, 100.0, report.AccuracyPct)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, report.AboveBreakeven)
	require.NotNil(t, report.Totals)
	assert.Equal(t, 1, report.Totals.OverPredictions)
	assert.NotEmpty(t, report.Warnings, "unreadable shares raise a warning")
}

func TestEffectivenessByMarket(t *testing.T) {
	svc := newTestAnalysis(linkedRepo(t), &fakeRunRepo{})

	report, err := svc.Effectiveness(context.Background(), "mlb", models.MarketOverUnder)
	require.NoError(t, err)
	assert.Equal(t, "mlb/OVER_UNDER", report.Scope)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Markets, 1)
	assert.Equal(t, models.MarketOverUnder, report.Markets[0].Kind)
}

func TestEffectivenessEmpty(t *testing.T) {
	svc := newTestAnalysis(&fakeConsensusRepo{}, nil)

	report, err := svc.Effectiveness(context.Background(), "mlb", "")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0.0, report.AccuracyPct)
	assert.NotNil(t, report.Markets)
}

func TestSimulatePersistsRun(t *testing.T) {
	runs := &fakeRunRepo{}
	svc := newTestAnalysis(linkedRepo(t), runs)

	summary, run, err := svc.Simulate(context.Background(), "mlb", "", testSimConfig())
	require.NoError(t, err)

	assert.Equal(t, simulator.StateCompleted, summary.FinalState)
	assert.Equal(t, 2, summary.BetCount)
	assert.True(t, summary.FinalBalance.Equal(decimal.NewFromInt(1032)), "final balance %s", summary.FinalBalance)

	require.Len(t, runs.runs, 1)
	assert.Same(t, run, runs.runs[0])
	assert.Equal(t, "all", run.MarketKind)
	assert.Equal(t, "COMPLETED", run.FinalState)
	assert.Equal(t, 60, run.Threshold)

	var history []decimal.Decimal
	require.NoError(t, json.Unmarshal(run.BalanceHistory, &history))
	require.Len(t, history, 3)
	assert.True(t, history[1].Equal(decimal.NewFromInt(1016)))

	recent, err := svc.RecentRuns(context.Background(), "mlb", 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestSimulateRejectsBadConfig(t *testing.T) {
	svc := newTestAnalysis(&fakeConsensusRepo{}, nil)
	cfg := testSimConfig()
	cfg.Stake = decimal.Zero

	_, _, err := svc.Simulate(context.Background(), "mlb", "", cfg)
	assert.Error(t, err)
}

func TestSimulateWithoutRunRepository(t *testing.T) {
	svc := newTestAnalysis(linkedRepo(t), nil)

	summary, run, err := svc.Simulate(context.Background(), "mlb", models.MarketWinnerLoser, testSimConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.BetCount)
	assert.Equal(t, "WINNER_LOSER", run.MarketKind)

	runs, err := svc.RecentRuns(context.Background(), "mlb", 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSequenceRisk(t *testing.T) {
	svc := newTestAnalysis(linkedRepo(t), nil)

	result, err := svc.SequenceRisk(context.Background(), "mlb", "", testSimConfig(), simulator.MonteCarloConfig{Iterations: 50, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 50, result.Iterations)
	assert.InDelta(t, 1032.0, result.MeanFinalBalance, 1e-9)
	assert.Equal(t, 1.0, result.ProbabilityOfProfit)
	assert.Equal(t, 0.0, result.ProbabilityOfBust)

	bad := testSimConfig()
	bad.Payout = decimal.Zero
	_, err = svc.SequenceRisk(context.Background(), "mlb", "", bad, simulator.MonteCarloConfig{Iterations: 5})
	assert.Error(t, err)
}

func TestTrend(t *testing.T) {
	svc := newTestAnalysis(linkedRepo(t), nil)

	trend, err := svc.Trend(context.Background(), "mlb", analysis.TrendConfig{WindowDays: 30})
	require.NoError(t, err)
	assert.Equal(t, "mlb", trend.Scope)
	require.Len(t, trend.Windows, 1)
	assert.Equal(t, 2, trend.Windows[0].Total)
	assert.Equal(t, 100.0, trend.ConsistencyPct)

	_, err = svc.Trend(context.Background(), "mlb", analysis.TrendConfig{})
	assert.Error(t, err)
}
