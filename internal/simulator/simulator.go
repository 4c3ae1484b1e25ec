// Package simulator replays matched predictions against a fixed-stake
// bankroll.
package simulator

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// Summary is the outcome of one simulation. Identical inputs always produce
// an identical summary.
type Summary struct {
	FinalState     State             `json:"final_state"`
	InitialBalance decimal.Decimal   `json:"initial_balance"`
	FinalBalance   decimal.Decimal   `json:"final_balance"`
	NetProfit      decimal.Decimal   `json:"net_profit"`
	PctReturn      float64           `json:"pct_return"`
	BetCount       int               `json:"bet_count"`
	WinCount       int               `json:"win_count"`
	LossCount      int               `json:"loss_count"`
	HitRatePct     float64           `json:"hit_rate_pct"`
	EligibleCount  int               `json:"eligible_count"`
	MaxDrawdownPct float64           `json:"max_drawdown_pct"`
	BalanceHistory []decimal.Decimal `json:"balance_history"`
	Curve          BalanceCurve      `json:"-"`
	Bets           []BetRecord       `json:"bets"`
}

// Simulate runs the bankroll model over pairs. Pairs are replayed in event
// date order, ties keeping input order. Pairs below the threshold are
// skipped. The run stops before a bet the balance cannot cover, or once
// MaxBets bets were placed.
func Simulate(pairs []*models.MatchedPair, cfg Config) *Summary {
	eligible := eligiblePairs(pairs, cfg.Threshold)
	state := replay(eligible, cfg)
	return summarize(state, cfg, len(eligible))
}

// eligiblePairs orders usable pairs by event date and keeps those at or
// above threshold
func eligiblePairs(pairs []*models.MatchedPair, threshold int) []*models.MatchedPair {
	ordered := make([]*models.MatchedPair, 0, len(pairs))
	for _, p := range pairs {
		if p != nil && p.Consensus != nil {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EventDate() < ordered[j].EventDate()
	})

	eligible := make([]*models.MatchedPair, 0, len(ordered))
	for _, p := range ordered {
		if p.DominantPct >= threshold {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// replay bets on eligible in the given order
func replay(eligible []*models.MatchedPair, cfg Config) *SimulationState {
	state := NewSimulationState(cfg.InitialBalance)
	for _, pair := range eligible {
		if !state.CanAfford(cfg.Stake) {
			state.Stop(StateStoppedInsufficientFunds)
			break
		}
		state.Place(pair, cfg.Stake, cfg.Payout)
		if cfg.MaxBets > 0 && len(state.Bets) >= cfg.MaxBets {
			state.Stop(StateStoppedMaxBets)
			break
		}
	}
	state.Stop(StateCompleted)
	return state
}

func summarize(state *SimulationState, cfg Config, eligible int) *Summary {
	summary := &Summary{
		FinalState:     state.State,
		InitialBalance: cfg.InitialBalance,
		FinalBalance:   state.Balance,
		NetProfit:      state.Balance.Sub(cfg.InitialBalance),
		BetCount:       len(state.Bets),
		WinCount:       state.Wins,
		LossCount:      state.Losses,
		EligibleCount:  eligible,
		MaxDrawdownPct: state.Curve.MaxDrawdownPct(),
		BalanceHistory: state.Curve.Values(),
		Curve:          state.Curve,
		Bets:           state.Bets,
	}
	if cfg.InitialBalance.IsPositive() {
		pct, _ := summary.NetProfit.Div(cfg.InitialBalance).Mul(decimal.NewFromInt(100)).Round(4).Float64()
		summary.PctReturn = pct
	}
	if summary.BetCount > 0 {
		rate, _ := decimal.NewFromInt(int64(summary.WinCount)).
			Div(decimal.NewFromInt(int64(summary.BetCount))).
			Mul(decimal.NewFromInt(100)).
			Round(4).Float64()
		summary.HitRatePct = rate
	}
	return summary
}

// Simulator wraps Simulate with a validated config and logging
type Simulator struct {
	cfg Config
	log *logger.AnalysisLogger
}

// NewSimulator creates a simulator for a validated config
func NewSimulator(cfg Config, log *logrus.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		cfg: cfg,
		log: logger.NewAnalysisLogger(log),
	}, nil
}

// Config returns the simulation parameters
func (s *Simulator) Config() Config {
	return s.cfg
}

// Run simulates pairs and logs the start and terminal state. runID only tags
// the log lines.
func (s *Simulator) Run(runID string, pairs []*models.MatchedPair) *Summary {
	s.log.LogSimulationStart(runID, s.cfg.InitialBalance.String(), s.cfg.Stake.String(), s.cfg.Payout.String(),
		s.cfg.Threshold, s.cfg.MaxBets, len(pairs))
	summary := Simulate(pairs, s.cfg)
	s.log.LogSimulationStop(runID, string(summary.FinalState), summary.FinalBalance.String(),
		summary.BetCount, summary.WinCount, summary.LossCount)
	return summary
}
