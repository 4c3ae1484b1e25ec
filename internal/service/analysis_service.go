package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/consensus"
	"github.com/josema3054/predicciones-deportivas/internal/matcher"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
	"github.com/josema3054/predicciones-deportivas/internal/simulator"
)

// allMarkets labels metrics for reports spanning every market kind
const allMarkets = "all"

// AnalysisService builds effectiveness reports and bankroll simulations from
// linked consensus records
type AnalysisService struct {
	consensusRepo repository.ConsensusRepository
	runRepo       repository.SimulationRunRepository
	aggregator    *analysis.Aggregator
	validator     *DataValidator
	baseLogger    *logrus.Logger
	logger        *logrus.Entry
	now           func() time.Time
}

// NewAnalysisService creates a new analysis service. runRepo may be nil when
// simulations are not persisted.
func NewAnalysisService(
	consensusRepo repository.ConsensusRepository,
	runRepo repository.SimulationRunRepository,
	aggregator *analysis.Aggregator,
	validator *DataValidator,
	log *logrus.Logger,
) *AnalysisService {
	if log == nil {
		log = logrus.New()
	}
	if aggregator == nil {
		aggregator = analysis.NewAggregator(analysis.DefaultBuckets, log)
	}
	return &AnalysisService{
		consensusRepo: consensusRepo,
		runRepo:       runRepo,
		aggregator:    aggregator,
		validator:     validator,
		baseLogger:    log,
		logger:        log.WithField("component", "analysis"),
		now:           time.Now,
	}
}

// LinkedPairs rebuilds matched pairs from linked records of sport. Records
// whose shares cannot be read or whose game was drawn are counted as
// skipped. kind "" selects every market.
func (s *AnalysisService) LinkedPairs(ctx context.Context, sport string, kind models.MarketKind) ([]*models.MatchedPair, []*models.ConsensusRecord, int, error) {
	recs, err := s.consensusRepo.ListLinked(ctx, sport, kind)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to list linked consensus records: %w", err)
	}

	pairs := make([]*models.MatchedPair, 0, len(recs))
	skipped := 0
	for _, rec := range recs {
		pair, err := matcher.PairFromLinked(rec)
		if err != nil {
			skipped++
			reason := matcher.SkipInvalidMarket
			switch {
			case errors.Is(err, consensus.ErrUnparseable):
				reason = matcher.SkipUnparseableShares
			case errors.Is(err, models.ErrResultNotFound):
				reason = matcher.SkipDrawnGame
			}
			s.logger.WithFields(logrus.Fields{"consensus_id": rec.ID, "reason": reason}).Debug("Linked record left out of analysis")
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, recs, skipped, nil
}

// Effectiveness computes the accuracy report over linked records
func (s *AnalysisService) Effectiveness(ctx context.Context, sport string, kind models.MarketKind) (*analysis.Report, error) {
	pairs, recs, skipped, err := s.LinkedPairs(ctx, sport, kind)
	if err != nil {
		return nil, err
	}

	var warnings []models.Warning
	if s.validator != nil {
		warnings = s.validator.CollectWarnings(recs)
	}

	report := s.aggregator.Run(scope(sport, kind), kind, pairs, skipped, warnings)
	metrics.UpdateReport(sport, marketLabel(kind), report.Total, report.AccuracyPct)
	return &report, nil
}

// Simulate replays linked records of sport through the bankroll model and
// persists the run when a run repository is configured
func (s *AnalysisService) Simulate(ctx context.Context, sport string, kind models.MarketKind, cfg simulator.Config) (*simulator.Summary, *models.SimulationRun, error) {
	sim, err := simulator.NewSimulator(cfg, s.baseLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	pairs, _, _, err := s.LinkedPairs(ctx, sport, kind)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.New()
	summary := sim.Run(runID.String(), pairs)

	history, err := json.Marshal(summary.BalanceHistory)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode balance history: %w", err)
	}
	now := s.now().UTC()
	run := &models.SimulationRun{
		ID:             runID,
		Sport:          sport,
		MarketKind:     marketLabel(kind),
		RunDate:        now,
		InitialBalance: summary.InitialBalance,
		FinalBalance:   summary.FinalBalance,
		Stake:          cfg.Stake,
		Payout:         cfg.Payout,
		Threshold:      cfg.Threshold,
		BetCount:       summary.BetCount,
		WinCount:       summary.WinCount,
		LossCount:      summary.LossCount,
		PctReturn:      summary.PctReturn,
		FinalState:     string(summary.FinalState),
		BalanceHistory: history,
		CreatedAt:      now,
	}

	if s.runRepo != nil {
		if err := s.runRepo.Save(ctx, run); err != nil {
			return summary, nil, fmt.Errorf("failed to save simulation run: %w", err)
		}
	}

	final, _ := summary.FinalBalance.Float64()
	metrics.RecordSimulationRun(sport, run.MarketKind, run.FinalState, final, summary.PctReturn)
	return summary, run, nil
}

// Trend computes rolling-window accuracy over linked records of sport
func (s *AnalysisService) Trend(ctx context.Context, sport string, cfg analysis.TrendConfig) (*analysis.Trend, error) {
	pairs, _, _, err := s.LinkedPairs(ctx, sport, cfg.Kind)
	if err != nil {
		return nil, err
	}
	trend, err := analysis.RollingAccuracy(pairs, scope(sport, cfg.Kind), cfg)
	if err != nil {
		return nil, err
	}
	return &trend, nil
}

// SequenceRisk replays linked records of sport in shuffled orders to show
// how much the result depends on the order the bets came in
func (s *AnalysisService) SequenceRisk(ctx context.Context, sport string, kind models.MarketKind, cfg simulator.Config, mc simulator.MonteCarloConfig) (*simulator.MonteCarloResult, error) {
	pairs, _, _, err := s.LinkedPairs(ctx, sport, kind)
	if err != nil {
		return nil, err
	}
	result, err := simulator.RunMonteCarlo(pairs, cfg, mc)
	if err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"sport":        sport,
		"iterations":   result.Iterations,
		"bust_pct":     result.ProbabilityOfBust * 100,
		"mean_balance": result.MeanFinalBalance,
	}).Info("Sequence risk computed")
	return &result, nil
}

// RecentRuns returns the latest persisted simulations of sport
func (s *AnalysisService) RecentRuns(ctx context.Context, sport string, limit int) ([]*models.SimulationRun, error) {
	if s.runRepo == nil {
		return nil, nil
	}
	runs, err := s.runRepo.GetLatest(ctx, sport, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulation runs: %w", err)
	}
	return runs, nil
}

func scope(sport string, kind models.MarketKind) string {
	if kind == "" {
		return sport
	}
	return sport + "/" + string(kind)
}

func marketLabel(kind models.MarketKind) string {
	if kind == "" {
		return allMarkets
	}
	return string(kind)
}
