package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
)

// RawConsensusRow is one scraped consensus row as delivered by the scraper
// export. Team fields carry whatever the page showed; codes may be blank.
type RawConsensusRow struct {
	Sport       string  `json:"sport"`
	TeamA       string  `json:"team_a"`
	TeamB       string  `json:"team_b"`
	TeamACode   string  `json:"team_a_code"`
	TeamBCode   string  `json:"team_b_code"`
	EventTime   string  `json:"event_time"`
	ScrapeDate  string  `json:"scrape_date"`
	Market      string  `json:"market"`
	ShareA      string  `json:"share_a,omitempty"`
	ShareB      string  `json:"share_b,omitempty"`
	ShareField1 string  `json:"share_field_1,omitempty"`
	ShareField2 string  `json:"share_field_2,omitempty"`
	TotalLine   float64 `json:"total_line,omitempty"`
}

var marketAliases = map[string]models.MarketKind{
	"WINNER_LOSER": models.MarketWinnerLoser,
	"MONEYLINE":    models.MarketWinnerLoser,
	"OVER_UNDER":   models.MarketOverUnder,
	"TOTALS":       models.MarketOverUnder,
}

// DataNormalizer converts scraped rows into consensus records with canonical
// team codes and calendar dates
type DataNormalizer struct {
	registry *normalize.Registry
	logger   *logrus.Entry
	now      func() time.Time
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(registry *normalize.Registry, logger *logrus.Logger) *DataNormalizer {
	if logger == nil {
		logger = logrus.New()
	}
	if registry == nil {
		registry = normalize.NewRegistry()
	}
	return &DataNormalizer{
		registry: registry,
		logger:   logger.WithField("component", "normalizer"),
		now:      time.Now,
	}
}

// NormalizeConsensus converts a raw row to a consensus record. A team that
// cannot be resolved, including an ambiguous city, rejects the row.
func (n *DataNormalizer) NormalizeConsensus(row *RawConsensusRow) (*models.ConsensusRecord, error) {
	if row == nil {
		return nil, fmt.Errorf("source row is nil")
	}
	sport := strings.ToLower(strings.TrimSpace(row.Sport))
	vocab, ok := n.registry.Get(sport)
	if !ok {
		return nil, fmt.Errorf("no team vocabulary for sport %q", row.Sport)
	}

	kind, ok := marketAliases[strings.ToUpper(strings.TrimSpace(row.Market))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown market %q", models.ErrInvalidMarket, row.Market)
	}

	scrapeDate, err := n.parseScrapeDate(row.ScrapeDate)
	if err != nil {
		return nil, err
	}

	teamA, err := resolveTeam(vocab, row.TeamACode, row.TeamA)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team_a: %w", err)
	}
	teamB, err := resolveTeam(vocab, row.TeamBCode, row.TeamB)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team_b: %w", err)
	}

	eventDate, err := normalize.ParseEventDateStrict(row.EventTime, scrapeDate)
	if err != nil {
		n.logger.WithField("event_time", row.EventTime).Debug("Event date unreadable, using scrape date")
		eventDate = scrapeDate.Format(models.DateLayout)
	}

	now := n.now().UTC()
	rec := &models.ConsensusRecord{
		ID:         uuid.New(),
		Sport:      sport,
		TeamAID:    teamA,
		TeamBID:    teamB,
		TeamAName:  strings.TrimSpace(row.TeamA),
		TeamBName:  strings.TrimSpace(row.TeamB),
		EventTime:  strings.TrimSpace(row.EventTime),
		EventDate:  eventDate,
		ScrapeDate: scrapeDate,
		Kind:       kind,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch kind {
	case models.MarketWinnerLoser:
		rec.WinnerLoser = &models.WinnerLoserMarket{ShareA: row.ShareA, ShareB: row.ShareB}
	case models.MarketOverUnder:
		rec.OverUnder = &models.OverUnderMarket{Field1: row.ShareField1, Field2: row.ShareField2, TotalLine: row.TotalLine}
	}
	return rec, nil
}

// parseScrapeDate accepts YYYY-MM-DD or RFC3339; a blank value means today
func (n *DataNormalizer) parseScrapeDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return truncateDay(n.now().UTC()), nil
	}
	if t, err := time.Parse(models.DateLayout, text); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scrape_date %q: %w", text, err)
	}
	return truncateDay(t.UTC()), nil
}

// resolveTeam prefers the scraped code and falls back to the display name
func resolveTeam(vocab *normalize.Vocabulary, code, name string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return vocab.Resolve(name)
	}
	resolved, err := vocab.Resolve(code)
	if err == nil {
		return resolved, nil
	}
	if strings.TrimSpace(name) == "" {
		return "", err
	}
	return vocab.Resolve(name)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
