package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultRecord is the final score of a completed game. It is ground truth
// and never modified after it is stored.
type ResultRecord struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Sport        string    `db:"sport" json:"sport" validate:"required"`
	Date         time.Time `db:"game_date" json:"date" validate:"required"`
	HomeTeamID   string    `db:"home_team_id" json:"home_team_id" validate:"required,max=4"`
	AwayTeamID   string    `db:"away_team_id" json:"away_team_id" validate:"required,max=4,nefield=HomeTeamID"`
	HomeTeamName string    `db:"home_team_name" json:"home_team_name"`
	AwayTeamName string    `db:"away_team_name" json:"away_team_name"`
	HomeScore    int       `db:"home_score" json:"home_score"`
	AwayScore    int       `db:"away_score" json:"away_score"`
	Source       string    `db:"source" json:"source"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// WinnerID returns the code of the winning team, empty on a tie
func (r *ResultRecord) WinnerID() string {
	switch {
	case r.HomeScore > r.AwayScore:
		return r.HomeTeamID
	case r.AwayScore > r.HomeScore:
		return r.AwayTeamID
	default:
		return ""
	}
}

// TotalPoints is the combined final score
func (r *ResultRecord) TotalPoints() int {
	return r.HomeScore + r.AwayScore
}

// DateKey returns the game date in DateLayout
func (r *ResultRecord) DateKey() string {
	return r.Date.Format(DateLayout)
}
