package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MatchStrategy names the rung of the matching ladder that paired a result
type MatchStrategy string

const (
	StrategyExact    MatchStrategy = "exact"
	StrategyWindowed MatchStrategy = "windowed"
	StrategyName     MatchStrategy = "name"
	// StrategyStored marks pairs rebuilt from records linked in an earlier run
	StrategyStored MatchStrategy = "stored"
)

// Orientation maps consensus slots onto result slots
type Orientation string

const (
	// OrientationDirect means team_a is home and team_b is away
	OrientationDirect Orientation = "direct"
	// OrientationCrossed means team_a is away and team_b is home
	OrientationCrossed Orientation = "crossed"
)

// MatchedPair associates a consensus record with the result it predicted.
// It is derived on the fly and never stored on its own.
type MatchedPair struct {
	Consensus   *ConsensusRecord `json:"consensus"`
	Result      *ResultRecord    `json:"result,omitempty"`
	Strategy    MatchStrategy    `json:"strategy"`
	Orientation Orientation      `json:"orientation"`
	Prediction  Side             `json:"prediction"`
	DominantPct int              `json:"dominant_pct"`
	Outcome     Side             `json:"outcome"`
	Correct     bool             `json:"correct"`
}

// Kind returns the market kind of the paired consensus record
func (p *MatchedPair) Kind() MarketKind {
	return p.Consensus.Kind
}

// EventDate is the chronological key used when replaying pairs
func (p *MatchedPair) EventDate() string {
	if p.Result != nil {
		return p.Result.DateKey()
	}
	return p.Consensus.MatchDate()
}

// UpdateInstruction carries the outcome fields to write back onto a consensus
// record. Applying the same instruction twice leaves the record unchanged.
type UpdateInstruction struct {
	ConsensusID       uuid.UUID `json:"consensus_record_id"`
	ResultID          uuid.UUID `json:"result_record_id"`
	ScoreA            int       `json:"actual_score_a"`
	ScoreB            int       `json:"actual_score_b"`
	OutcomeSide       Side      `json:"outcome_side"`
	ActualWinnerID    string    `json:"actual_winner_id,omitempty"`
	ActualTotal       *int      `json:"actual_total,omitempty"`
	PredictionCorrect bool      `json:"prediction_correct"`
}

// Outcome converts the instruction into the outcome stored on the record
func (u UpdateInstruction) Outcome(linkedAt time.Time) *ConsensusOutcome {
	var resultID *uuid.UUID
	if u.ResultID != uuid.Nil {
		id := u.ResultID
		resultID = &id
	}
	return &ConsensusOutcome{
		ResultID:          resultID,
		ScoreA:            u.ScoreA,
		ScoreB:            u.ScoreB,
		OutcomeSide:       u.OutcomeSide,
		ActualWinnerID:    u.ActualWinnerID,
		ActualTotal:       u.ActualTotal,
		PredictionCorrect: u.PredictionCorrect,
		LinkedAt:          linkedAt,
	}
}

// Warning is a data-quality finding attached to a report instead of failing it
type Warning struct {
	RecordID uuid.UUID `json:"record_id"`
	Field    string    `json:"field"`
	Message  string    `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%s)", w.Field, w.Message, w.RecordID)
}
