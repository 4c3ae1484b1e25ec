package simulator

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// State is the lifecycle state of one simulation run
type State string

const (
	StateRunning                  State = "RUNNING"
	StateStoppedInsufficientFunds State = "STOPPED_INSUFFICIENT_FUNDS"
	StateStoppedMaxBets           State = "STOPPED_MAX_BETS"
	StateCompleted                State = "COMPLETED"
)

// Terminal reports whether no further bets can be placed
func (s State) Terminal() bool {
	return s != StateRunning
}

// BetRecord is one simulated bet
type BetRecord struct {
	Index        int               `json:"index"`
	EventDate    string            `json:"event_date"`
	ConsensusID  uuid.UUID         `json:"consensus_id"`
	MarketKind   models.MarketKind `json:"market_kind"`
	Side         models.Side       `json:"side"`
	Pct          int               `json:"pct"`
	Won          bool              `json:"won"`
	Stake        decimal.Decimal   `json:"stake"`
	Return       decimal.Decimal   `json:"return"`
	BalanceAfter decimal.Decimal   `json:"balance_after"`
}

// SimulationState tracks the running balance of one run. It is owned by a
// single Run call and never shared.
type SimulationState struct {
	State   State
	Balance decimal.Decimal
	Peak    decimal.Decimal
	Curve   BalanceCurve
	Bets    []BetRecord
	Wins    int
	Losses  int
}

// NewSimulationState starts a run with the initial balance as the first
// history point
func NewSimulationState(initial decimal.Decimal) *SimulationState {
	s := &SimulationState{
		State:   StateRunning,
		Balance: initial,
		Peak:    initial,
	}
	s.Curve = append(s.Curve, BalancePoint{Bet: 0, Balance: initial})
	return s
}

// CanAfford reports whether another stake can be placed
func (s *SimulationState) CanAfford(stake decimal.Decimal) bool {
	return s.Balance.GreaterThanOrEqual(stake)
}

// Place deducts the stake, credits stake*payout on a win and records the bet
func (s *SimulationState) Place(pair *models.MatchedPair, stake, payout decimal.Decimal) BetRecord {
	s.Balance = s.Balance.Sub(stake)
	ret := decimal.Zero
	if pair.Correct {
		ret = stake.Mul(payout)
		s.Balance = s.Balance.Add(ret)
		s.Wins++
	} else {
		s.Losses++
	}
	if s.Balance.GreaterThan(s.Peak) {
		s.Peak = s.Balance
	}

	bet := BetRecord{
		Index:        len(s.Bets) + 1,
		EventDate:    pair.EventDate(),
		ConsensusID:  pair.Consensus.ID,
		MarketKind:   pair.Kind(),
		Side:         pair.Prediction,
		Pct:          pair.DominantPct,
		Won:          pair.Correct,
		Stake:        stake,
		Return:       ret,
		BalanceAfter: s.Balance,
	}
	s.Bets = append(s.Bets, bet)
	s.Curve = append(s.Curve, BalancePoint{Bet: bet.Index, EventDate: bet.EventDate, Balance: s.Balance})
	return bet
}

// Stop moves a running state to a terminal one. Terminal states are final.
func (s *SimulationState) Stop(next State) {
	if s.State.Terminal() {
		return
	}
	s.State = next
}
