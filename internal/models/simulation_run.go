package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationRun is a persisted bankroll simulation
type SimulationRun struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Sport          string          `db:"sport" json:"sport"`
	MarketKind     string          `db:"market_kind" json:"market_kind"`
	RunDate        time.Time       `db:"run_date" json:"run_date"`
	InitialBalance decimal.Decimal `db:"initial_balance" json:"initial_balance"`
	FinalBalance   decimal.Decimal `db:"final_balance" json:"final_balance"`
	Stake          decimal.Decimal `db:"stake" json:"stake"`
	Payout         decimal.Decimal `db:"payout" json:"payout"`
	Threshold      int             `db:"threshold" json:"threshold"`
	BetCount       int             `db:"bet_count" json:"bet_count"`
	WinCount       int             `db:"win_count" json:"win_count"`
	LossCount      int             `db:"loss_count" json:"loss_count"`
	PctReturn      float64         `db:"pct_return" json:"pct_return"`
	FinalState     string          `db:"final_state" json:"final_state"`
	BalanceHistory json.RawMessage `db:"balance_history" json:"balance_history"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
