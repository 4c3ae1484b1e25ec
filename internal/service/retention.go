package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
)

// PurgeSummary reports rows removed by one retention pass
type PurgeSummary struct {
	Cutoff    time.Time `json:"cutoff"`
	Consensus int64     `json:"consensus"`
	Results   int64     `json:"results"`
}

// RetentionService removes records older than the retention window
type RetentionService struct {
	consensusRepo repository.ConsensusRepository
	resultRepo    repository.ResultRepository
	audit         *logger.AuditLogger
	logger        *logrus.Entry
	now           func() time.Time
}

// NewRetentionService creates a new retention service
func NewRetentionService(consensusRepo repository.ConsensusRepository, resultRepo repository.ResultRepository, log *logrus.Logger) *RetentionService {
	if log == nil {
		log = logrus.New()
	}
	return &RetentionService{
		consensusRepo: consensusRepo,
		resultRepo:    resultRepo,
		audit:         logger.NewAuditLogger(log),
		logger:        log.WithField("component", "retention"),
		now:           time.Now,
	}
}

// Purge deletes consensus and result records older than retentionDays
func (s *RetentionService) Purge(ctx context.Context, retentionDays int) (*PurgeSummary, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	reason := fmt.Sprintf("older than %d days", retentionDays)
	summary := &PurgeSummary{Cutoff: s.now().UTC().AddDate(0, 0, -retentionDays)}

	n, err := s.consensusRepo.PurgeBefore(ctx, summary.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge consensus records: %w", err)
	}
	summary.Consensus = n
	s.audit.LogPurge("consensus_records", n, reason)
	metrics.RecordPurge("consensus_records", n)

	n, err = s.resultRepo.PurgeBefore(ctx, summary.Cutoff)
	if err != nil {
		return summary, fmt.Errorf("failed to purge results: %w", err)
	}
	summary.Results = n
	s.audit.LogPurge("result_records", n, reason)
	metrics.RecordPurge("result_records", n)

	return summary, nil
}
