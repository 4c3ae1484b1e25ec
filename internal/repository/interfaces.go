package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// ConsensusRepository defines the interface for consensus record data access
type ConsensusRepository interface {
	Create(ctx context.Context, rec *models.ConsensusRecord) error
	CreateBatch(ctx context.Context, recs []*models.ConsensusRecord) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ConsensusRecord, error)
	ListByScrapeDate(ctx context.Context, sport string, start, end time.Time) ([]*models.ConsensusRecord, error)
	// ListUnlinked returns records of sport with no outcome attached yet
	ListUnlinked(ctx context.Context, sport string) ([]*models.ConsensusRecord, error)
	// ListLinked returns records with an outcome; an empty kind means every market
	ListLinked(ctx context.Context, sport string, kind models.MarketKind) ([]*models.ConsensusRecord, error)
	ExistsByDedupeKey(ctx context.Context, rec *models.ConsensusRecord) (bool, error)
	// ApplyOutcomes writes update instructions by record id. Re-applying an
	// instruction leaves the record unchanged.
	ApplyOutcomes(ctx context.Context, updates []models.UpdateInstruction, linkedAt time.Time) (int, error)
	// ListConsumedResults reports, per market kind, which of resultIDs
	// already supplied an outcome to some record
	ListConsumedResults(ctx context.Context, resultIDs []uuid.UUID) (map[models.MarketKind][]uuid.UUID, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResultRepository defines the interface for final score data access
type ResultRepository interface {
	// Upsert stores a result unless one already exists for the same game.
	// Stored results are never modified; the returned flag reports an insert.
	Upsert(ctx context.Context, result *models.ResultRecord) (bool, error)
	UpsertBatch(ctx context.Context, results []*models.ResultRecord) (int, error)
	ListByDateRange(ctx context.Context, sport string, start, end time.Time) ([]*models.ResultRecord, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SimulationRunRepository stores bankroll simulation runs
type SimulationRunRepository interface {
	Save(ctx context.Context, run *models.SimulationRun) error
	GetLatest(ctx context.Context, sport string, limit int) ([]*models.SimulationRun, error)
}
