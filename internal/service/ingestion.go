// Package service wires the matching core to storage and the results feed.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
)

const defaultBatchSize = 100

// IngestionService handles the consensus import workflow
type IngestionService struct {
	consensusRepo repository.ConsensusRepository
	validator     *DataValidator
	normalizer    *DataNormalizer
	audit         *logger.AuditLogger
	logger        *logrus.Entry
	batchSize     int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	consensusRepo repository.ConsensusRepository,
	validator *DataValidator,
	normalizer *DataNormalizer,
	log *logrus.Logger,
	batchSize int,
) *IngestionService {
	if log == nil {
		log = logrus.New()
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &IngestionService{
		consensusRepo: consensusRepo,
		validator:     validator,
		normalizer:    normalizer,
		audit:         logger.NewAuditLogger(log),
		logger:        log.WithField("component", "ingestion"),
		batchSize:     batchSize,
	}
}

// DecodeRows reads a JSON array of scraped rows
func DecodeRows(r io.Reader) ([]*RawConsensusRow, error) {
	var rows []*RawConsensusRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode consensus rows: %w", err)
	}
	return rows, nil
}

// ImportConsensus normalizes, validates and stores scraped rows. Rows that
// fail normalization or validation are counted and skipped. A row repeating
// a stored (or earlier in-batch) dedupe key is dropped; within a batch the
// last occurrence wins.
func (s *IngestionService) ImportConsensus(ctx context.Context, rows []*RawConsensusRow) (*IngestionMetrics, error) {
	stats := NewIngestionMetrics()
	stats.TotalRows = len(rows)

	s.logger.WithField("rows", len(rows)).Info("Starting consensus import")

	byKey := make(map[string]int)
	dupesBySport := make(map[string]int)
	var pending []*models.ConsensusRecord
	for i, row := range rows {
		rec, err := s.normalizer.NormalizeConsensus(row)
		if err != nil {
			stats.RecordValidationError()
			s.logger.WithError(err).WithField("row", i).Warn("Row rejected by normalizer")
			continue
		}
		if err := s.validator.ValidateConsensus(rec); err != nil {
			stats.RecordValidationError()
			s.logger.WithError(err).WithField("row", i).Warn("Row rejected by validator")
			continue
		}

		key := rec.DedupeKey()
		if idx, seen := byKey[key]; seen {
			stats.RecordDuplicate()
			dupesBySport[rec.Sport]++
			s.audit.LogDuplicateSkipped(key)
			pending[idx] = rec
			continue
		}
		byKey[key] = len(pending)
		pending = append(pending, rec)
	}

	fresh := make([]*models.ConsensusRecord, 0, len(pending))
	for _, rec := range pending {
		exists, err := s.consensusRepo.ExistsByDedupeKey(ctx, rec)
		if err != nil {
			stats.RecordError()
			stats.Finish()
			return stats, fmt.Errorf("failed to check duplicate scrape: %w", err)
		}
		if exists {
			stats.RecordDuplicate()
			dupesBySport[rec.Sport]++
			s.audit.LogDuplicateSkipped(rec.DedupeKey())
			continue
		}
		stats.RecordWarnings(len(s.validator.CollectWarnings([]*models.ConsensusRecord{rec})))
		fresh = append(fresh, rec)
	}

	storedBySport := make(map[string]int)
	var batchErr error
	for i := 0; i < len(fresh); i += s.batchSize {
		end := i + s.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		batch := fresh[i:end]

		n, err := s.consensusRepo.CreateBatch(ctx, batch)
		if err != nil {
			stats.RecordError()
			s.logger.WithError(err).WithField("batch_start", i).Error("Error storing batch")
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to store consensus batch: %w", err)
			}
			// Continue storing other batches
			continue
		}
		stats.RecordStored(int(n))
		for _, rec := range batch {
			storedBySport[rec.Sport]++
		}
	}

	for sport := range dupesBySport {
		if _, ok := storedBySport[sport]; !ok {
			storedBySport[sport] = 0
		}
	}
	for sport, n := range storedBySport {
		metrics.RecordImported(sport, n, dupesBySport[sport])
	}
	stats.Finish()

	s.logger.WithFields(logrus.Fields{
		"stored":            stats.Stored,
		"duplicates":        stats.Duplicates,
		"validation_errors": stats.ValidationErrors,
		"warnings":          stats.Warnings,
		"errors":            stats.Errors,
		"duration":          stats.Duration,
	}).Info("Consensus import complete")

	return stats, batchErr
}
