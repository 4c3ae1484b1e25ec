package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/matcher"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
)

// LinkSummary reports one linking run
type LinkSummary struct {
	Sport      string                       `json:"sport"`
	Candidates int                          `json:"candidates"`
	Results    int                          `json:"results"`
	Consumed   int                          `json:"consumed"`
	Matched    int                          `json:"matched"`
	Applied    int                          `json:"applied"`
	Unmatched  int                          `json:"unmatched"`
	Skipped    int                          `json:"skipped"`
	Duplicates int                          `json:"duplicates"`
	ByStrategy map[models.MatchStrategy]int `json:"by_strategy"`
	Duration   time.Duration                `json:"duration"`
}

// LinkingService attaches stored results to the consensus records that
// predicted them
type LinkingService struct {
	consensusRepo repository.ConsensusRepository
	resultRepo    repository.ResultRepository
	matcher       *matcher.Matcher
	audit         *logger.AuditLogger
	logger        *logrus.Entry
	now           func() time.Time
}

// NewLinkingService creates a new linking service
func NewLinkingService(
	consensusRepo repository.ConsensusRepository,
	resultRepo repository.ResultRepository,
	m *matcher.Matcher,
	log *logrus.Logger,
) *LinkingService {
	if log == nil {
		log = logrus.New()
	}
	if m == nil {
		m = matcher.NewMatcher(matcher.DefaultWindowDays, log)
	}
	return &LinkingService{
		consensusRepo: consensusRepo,
		resultRepo:    resultRepo,
		matcher:       m,
		audit:         logger.NewAuditLogger(log),
		logger:        log.WithField("component", "linking"),
		now:           time.Now,
	}
}

// Link matches every unlinked consensus record of sport against the stored
// results around its date and writes the outcomes back. Running it again
// with no new data changes nothing.
func (s *LinkingService) Link(ctx context.Context, sport string) (*LinkSummary, *matcher.BatchResult, error) {
	began := time.Now()
	summary := &LinkSummary{Sport: sport, ByStrategy: map[models.MatchStrategy]int{}}

	pool, err := s.consensusRepo.ListUnlinked(ctx, sport)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list unlinked consensus records: %w", err)
	}
	summary.Candidates = len(pool)

	start, end, ok := s.dateSpan(pool)
	if !ok {
		s.logger.WithField("sport", sport).Info("No unlinked consensus records with a usable date")
		summary.Duration = time.Since(began)
		return summary, &matcher.BatchResult{ByStrategy: summary.ByStrategy}, nil
	}

	results, err := s.resultRepo.ListByDateRange(ctx, sport, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list results: %w", err)
	}
	summary.Results = len(results)

	consumed, err := s.consumedResults(ctx, results)
	if err != nil {
		return nil, nil, err
	}
	for _, ids := range consumed {
		summary.Consumed += len(ids)
	}

	batch := s.matcher.MatchAvailable(results, pool, consumed)
	summary.Matched = batch.MatchedCount()
	summary.Unmatched = len(batch.Unmatched)
	summary.Skipped = len(batch.Skipped)
	summary.Duplicates = batch.Duplicates
	summary.ByStrategy = batch.ByStrategy

	if len(batch.Updates) > 0 {
		applied, err := s.consensusRepo.ApplyOutcomes(ctx, batch.Updates, s.now().UTC())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to apply outcomes: %w", err)
		}
		summary.Applied = applied
		for _, u := range batch.Updates {
			s.audit.LogOutcomeApplied(u.ConsensusID.String(), string(u.OutcomeSide), u.ScoreA, u.ScoreB, u.PredictionCorrect)
		}
	}

	s.record(sport, batch, summary)
	summary.Duration = time.Since(began)
	metrics.RecordLinkDuration(summary.Duration.Seconds())

	s.logger.WithFields(logrus.Fields{
		"sport":      sport,
		"candidates": summary.Candidates,
		"results":    summary.Results,
		"consumed":   summary.Consumed,
		"matched":    summary.Matched,
		"applied":    summary.Applied,
		"unmatched":  summary.Unmatched,
		"skipped":    summary.Skipped,
		"duplicates": summary.Duplicates,
	}).Info("Linking run complete")
	return summary, batch, nil
}

// consumedResults finds the results that already supplied an outcome in an
// earlier run, so a later record of the same teams cannot take them again
func (s *LinkingService) consumedResults(ctx context.Context, results []*models.ResultRecord) (matcher.Consumed, error) {
	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	byKind, err := s.consensusRepo.ListConsumedResults(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list consumed results: %w", err)
	}
	consumed := make(matcher.Consumed, len(byKind))
	for kind, kindIDs := range byKind {
		for _, id := range kindIDs {
			consumed.Add(kind, id)
		}
	}
	return consumed, nil
}

func (s *LinkingService) record(sport string, batch *matcher.BatchResult, summary *LinkSummary) {
	for strategy, n := range batch.ByStrategy {
		metrics.RecordMatches(sport, string(strategy), n)
	}
	for _, u := range batch.Unmatched {
		metrics.RecordUnmatched(sport, string(u.Kind))
	}
	for _, skip := range batch.Skipped {
		metrics.RecordSkipped(sport, skip.Reason)
	}
	metrics.RecordOutcomesApplied(sport, summary.Applied)
}

// dateSpan widens the span of the pool's match dates by the matcher window
func (s *LinkingService) dateSpan(pool []*models.ConsensusRecord) (start, end time.Time, ok bool) {
	for _, rec := range pool {
		d, err := time.Parse(models.DateLayout, rec.MatchDate())
		if err != nil {
			continue
		}
		if !ok || d.Before(start) {
			start = d
		}
		if !ok || d.After(end) {
			end = d
		}
		ok = true
	}
	if !ok {
		return start, end, false
	}
	window := s.matcher.WindowDays()
	return start.AddDate(0, 0, -window), end.AddDate(0, 0, window), true
}
