// Package matcher pairs result records with the consensus records that
// predicted them.
package matcher

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// DefaultWindowDays is the date drift tolerated by the windowed strategies
const DefaultWindowDays = 3

// Match is a consensus record chosen for one result
type Match struct {
	Consensus   *models.ConsensusRecord
	Strategy    models.MatchStrategy
	Orientation models.Orientation
	// OrientationGuessed is set when neither codes nor names aligned the slots
	OrientationGuessed bool
	// Discarded lists candidates at the same strictness that lost the
	// latest-scrape tie-break
	Discarded []*models.ConsensusRecord
}

// Matcher runs the strict-to-loose matching ladder. It never modifies the
// records it is given.
type Matcher struct {
	windowDays int
	log        *logger.MatchLogger
}

// NewMatcher creates a matcher. A non-positive window uses DefaultWindowDays.
func NewMatcher(windowDays int, log *logrus.Logger) *Matcher {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Matcher{
		windowDays: windowDays,
		log:        logger.NewMatchLogger(log),
	}
}

// WindowDays returns the configured date window
func (m *Matcher) WindowDays() int {
	return m.windowDays
}

// FindMatch returns the consensus record in pool that corresponds to result,
// trying exact, then windowed, then name-based matching. The second return
// value is false when nothing matches.
func (m *Matcher) FindMatch(result *models.ResultRecord, pool []*models.ConsensusRecord) (*Match, bool) {
	tiers := m.classify(result, pool)
	for _, strategy := range ladder {
		if match, ok := m.pick(result, strategy, tiers[strategy]); ok {
			return match, true
		}
	}
	return nil, false
}

var ladder = []models.MatchStrategy{models.StrategyExact, models.StrategyWindowed, models.StrategyName}

// classify sorts the pool records that could pair with result by the
// strictest strategy each one satisfies
func (m *Matcher) classify(result *models.ResultRecord, pool []*models.ConsensusRecord) map[models.MatchStrategy][]*models.ConsensusRecord {
	resultDay := truncateDay(result.Date)
	tiers := make(map[models.MatchStrategy][]*models.ConsensusRecord, len(ladder))
	for _, rec := range pool {
		if !strings.EqualFold(rec.Sport, result.Sport) {
			continue
		}
		recDay, err := time.Parse(models.DateLayout, rec.MatchDate())
		if err != nil {
			continue
		}
		days := dayDistance(recDay, resultDay)
		if days > m.windowDays {
			continue
		}

		switch {
		case sameTeams(rec, result) && days == 0:
			tiers[models.StrategyExact] = append(tiers[models.StrategyExact], rec)
		case sameTeams(rec, result):
			tiers[models.StrategyWindowed] = append(tiers[models.StrategyWindowed], rec)
		default:
			if _, ok := nameOrientation(rec, result); ok {
				tiers[models.StrategyName] = append(tiers[models.StrategyName], rec)
			}
		}
	}
	return tiers
}

// pick chooses the latest scrape among candidates of one strategy
func (m *Matcher) pick(result *models.ResultRecord, strategy models.MatchStrategy, candidates []*models.ConsensusRecord) (*Match, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	kept, discarded := latest(candidates)
	orientation, guessed := resolveOrientation(kept, result)
	match := &Match{
		Consensus:          kept,
		Strategy:           strategy,
		Orientation:        orientation,
		OrientationGuessed: guessed,
		Discarded:          discarded,
	}
	m.logMatch(result, match)
	return match, true
}

func (m *Matcher) logMatch(result *models.ResultRecord, match *Match) {
	key := resultKey(result)
	if len(match.Discarded) > 0 {
		ids := make([]string, len(match.Discarded))
		for i, d := range match.Discarded {
			ids[i] = d.ID.String()
		}
		m.log.LogAmbiguous(key, match.Consensus.ID.String(), ids, string(match.Strategy))
	}
	if match.OrientationGuessed {
		m.log.LogOrientationFallback(key, match.Consensus.ID.String())
	}
	m.log.LogMatch(key, match.Consensus.ID.String(), string(match.Consensus.Kind), string(match.Strategy), string(match.Orientation))
}

// latest picks the candidate with the most recent creation time. Equal
// creation times keep the earliest candidate in pool order.
func latest(candidates []*models.ConsensusRecord) (*models.ConsensusRecord, []*models.ConsensusRecord) {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].CreatedAt.After(candidates[best].CreatedAt) {
			best = i
		}
	}
	discarded := make([]*models.ConsensusRecord, 0, len(candidates)-1)
	for i, c := range candidates {
		if i != best {
			discarded = append(discarded, c)
		}
	}
	return candidates[best], discarded
}

// sameTeams compares the unordered code pairs
func sameTeams(rec *models.ConsensusRecord, result *models.ResultRecord) bool {
	a, b := upper(rec.TeamAID), upper(rec.TeamBID)
	home, away := upper(result.HomeTeamID), upper(result.AwayTeamID)
	if a == "" || b == "" {
		return false
	}
	return (a == home && b == away) || (a == away && b == home)
}

// resolveOrientation aligns consensus slots with result slots by codes first
// and display names second. Falls back to direct with guessed set.
func resolveOrientation(rec *models.ConsensusRecord, result *models.ResultRecord) (models.Orientation, bool) {
	a, b := upper(rec.TeamAID), upper(rec.TeamBID)
	home, away := upper(result.HomeTeamID), upper(result.AwayTeamID)
	switch {
	case a != "" && (a == home || (b != "" && b == away)):
		return models.OrientationDirect, false
	case a != "" && (a == away || (b != "" && b == home)):
		return models.OrientationCrossed, false
	}
	if o, ok := nameOrientation(rec, result); ok {
		return o, false
	}
	return models.OrientationDirect, true
}

// nameOrientation checks display-name containment, direct before crossed
func nameOrientation(rec *models.ConsensusRecord, result *models.ResultRecord) (models.Orientation, bool) {
	if namesMatch(rec.TeamAName, result.HomeTeamName) && namesMatch(rec.TeamBName, result.AwayTeamName) {
		return models.OrientationDirect, true
	}
	if namesMatch(rec.TeamAName, result.AwayTeamName) && namesMatch(rec.TeamBName, result.HomeTeamName) {
		return models.OrientationCrossed, true
	}
	return "", false
}

// namesMatch is a case-insensitive containment check in either direction
func namesMatch(x, y string) bool {
	x, y = strings.ToLower(strings.TrimSpace(x)), strings.ToLower(strings.TrimSpace(y))
	if x == "" || y == "" {
		return false
	}
	return strings.Contains(x, y) || strings.Contains(y, x)
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayDistance(a, b time.Time) int {
	d := truncateDay(a).Sub(truncateDay(b))
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func resultKey(r *models.ResultRecord) string {
	return r.Sport + ":" + r.DateKey() + ":" + r.HomeTeamID + "-" + r.AwayTeamID
}
