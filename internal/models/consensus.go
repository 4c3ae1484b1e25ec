package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical calendar date format used across records
const DateLayout = "2006-01-02"

// MarketKind identifies the betting market a consensus record describes
type MarketKind string

const (
	MarketWinnerLoser MarketKind = "WINNER_LOSER"
	MarketOverUnder   MarketKind = "OVER_UNDER"
)

// Side is one of the two outcomes of a market
type Side string

const (
	SideTeamA Side = "team_a"
	SideTeamB Side = "team_b"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// WinnerLoserMarket holds the raw pick shares of a moneyline market.
// Shares are attributed by position on the source page.
type WinnerLoserMarket struct {
	ShareA string `db:"share_a" json:"share_a" validate:"required"`
	ShareB string `db:"share_b" json:"share_b" validate:"required"`
}

// OverUnderMarket holds the raw pick shares of a totals market. Each field
// carries its own "Over"/"Under" label; which field holds which side is not
// guaranteed.
type OverUnderMarket struct {
	Field1    string  `db:"share_field_1" json:"share_field_1" validate:"required"`
	Field2    string  `db:"share_field_2" json:"share_field_2" validate:"required"`
	TotalLine float64 `db:"total_line" json:"total_line" validate:"gt=0"`
}

// ConsensusOutcome is written onto a consensus record once a result is linked
type ConsensusOutcome struct {
	// ResultID is the result the outcome was taken from; nil for outcomes
	// linked before it was recorded
	ResultID          *uuid.UUID `db:"linked_result_id" json:"linked_result_id,omitempty"`
	ScoreA            int        `db:"score_a" json:"score_a"`
	ScoreB            int        `db:"score_b" json:"score_b"`
	OutcomeSide       Side       `db:"outcome_side" json:"outcome_side"`
	ActualWinnerID    string     `db:"actual_winner_id" json:"actual_winner_id,omitempty"`
	ActualTotal       *int       `db:"actual_total" json:"actual_total,omitempty"`
	PredictionCorrect bool       `db:"prediction_correct" json:"prediction_correct"`
	LinkedAt          time.Time  `db:"linked_at" json:"linked_at"`
}

// ConsensusRecord is one scraped matchup/market with public pick shares.
// Exactly one of WinnerLoser or OverUnder is set, matching Kind.
type ConsensusRecord struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	Sport       string             `db:"sport" json:"sport" validate:"required"`
	TeamAID     string             `db:"team_a_id" json:"team_a_id" validate:"required,max=4"`
	TeamBID     string             `db:"team_b_id" json:"team_b_id" validate:"required,max=4,nefield=TeamAID"`
	TeamAName   string             `db:"team_a_name" json:"team_a_name"`
	TeamBName   string             `db:"team_b_name" json:"team_b_name"`
	EventTime   string             `db:"event_time" json:"event_time"`
	EventDate   string             `db:"event_date" json:"event_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ScrapeDate  time.Time          `db:"scrape_date" json:"scrape_date" validate:"required"`
	Kind        MarketKind         `db:"market_kind" json:"market_kind" validate:"required,oneof=WINNER_LOSER OVER_UNDER"`
	WinnerLoser *WinnerLoserMarket `json:"winner_loser,omitempty" validate:"omitempty"`
	OverUnder   *OverUnderMarket   `json:"over_under,omitempty" validate:"omitempty"`
	Outcome     *ConsensusOutcome  `json:"outcome,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// CheckVariant reports whether the market payload agrees with Kind
func (c *ConsensusRecord) CheckVariant() error {
	switch c.Kind {
	case MarketWinnerLoser:
		if c.WinnerLoser == nil || c.OverUnder != nil {
			return fmt.Errorf("%w: %s record needs only winner/loser shares", ErrInvalidMarket, c.Kind)
		}
	case MarketOverUnder:
		if c.OverUnder == nil || c.WinnerLoser != nil {
			return fmt.Errorf("%w: %s record needs only over/under shares", ErrInvalidMarket, c.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMarket, c.Kind)
	}
	return nil
}

// MatchDate is the calendar date used to pair the record with a result:
// the normalized event date when known, the scrape date otherwise.
func (c *ConsensusRecord) MatchDate() string {
	if c.EventDate != "" {
		return c.EventDate
	}
	return c.ScrapeDate.Format(DateLayout)
}

// DedupeKey identifies repeated scrapes of the same matchup and market
func (c *ConsensusRecord) DedupeKey() string {
	return strings.Join([]string{
		strings.ToLower(c.Sport),
		string(c.Kind),
		strings.ToUpper(c.TeamAID),
		strings.ToUpper(c.TeamBID),
		c.ScrapeDate.Format(DateLayout),
	}, "|")
}

// IsLinked reports whether an outcome was already attached
func (c *ConsensusRecord) IsLinked() bool {
	return c.Outcome != nil
}
