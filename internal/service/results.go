package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/datasource"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
)

// FetchSummary reports one results fetch
type FetchSummary struct {
	Sport    string           `json:"sport"`
	Start    string           `json:"start"`
	End      string           `json:"end"`
	Fetched  int              `json:"fetched"`
	Stored   int              `json:"stored"`
	Rejected int              `json:"rejected"`
	Warnings []models.Warning `json:"warnings,omitempty"`
	Duration time.Duration    `json:"duration"`
}

// ResultsService pulls final scores from a results source into storage
type ResultsService struct {
	sport     string
	source    datasource.ResultsSource
	repo      repository.ResultRepository
	validator *DataValidator
	logger    *logrus.Entry
}

// NewResultsService creates a results service for one sport
func NewResultsService(sport string, source datasource.ResultsSource, repo repository.ResultRepository, validator *DataValidator, logger *logrus.Logger) *ResultsService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ResultsService{
		sport:     sport,
		source:    source,
		repo:      repo,
		validator: validator,
		logger: logger.WithFields(logrus.Fields{
			"component": "results",
			"sport":     sport,
			"source":    source.Name(),
		}),
	}
}

// FetchAndStore fetches every completed game in [start, end] and stores the
// ones not already known. Stored results are never overwritten.
func (s *ResultsService) FetchAndStore(ctx context.Context, start, end time.Time) (*FetchSummary, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	summary := &FetchSummary{
		Sport: s.sport,
		Start: start.Format(models.DateLayout),
		End:   end.Format(models.DateLayout),
	}
	began := time.Now()

	results, err := s.source.FetchRange(ctx, start, end)
	if err != nil {
		code := datasource.ErrCodeNetworkError
		var dsErr datasource.DataSourceError
		if errors.As(err, &dsErr) {
			code = dsErr.Code
		}
		metrics.RecordFetchError(s.source.Name(), code)
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	summary.Fetched = len(results)

	valid := make([]*models.ResultRecord, 0, len(results))
	for _, result := range results {
		if err := s.validator.ValidateResult(result); err != nil {
			summary.Rejected++
			s.logger.WithError(err).WithField("game", result.DateKey()+" "+result.AwayTeamID+"@"+result.HomeTeamID).Warn("Result rejected")
			continue
		}
		for _, w := range s.validator.ResultWarnings(result) {
			metrics.RecordWarning(w.Field)
			summary.Warnings = append(summary.Warnings, w)
		}
		valid = append(valid, result)
	}

	stored, err := s.repo.UpsertBatch(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to store results: %w", err)
	}
	summary.Stored = stored
	summary.Duration = time.Since(began)
	metrics.RecordResultsFetched(s.source.Name(), s.sport, summary.Fetched, summary.Duration.Seconds())

	s.logger.WithFields(logrus.Fields{
		"start":    summary.Start,
		"end":      summary.End,
		"fetched":  summary.Fetched,
		"stored":   summary.Stored,
		"rejected": summary.Rejected,
		"warnings": len(summary.Warnings),
	}).Info("Results fetch complete")
	return summary, nil
}
