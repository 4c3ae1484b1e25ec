package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/josema3054/predicciones-deportivas/internal/database"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

const (
	consensusColumns = `id, sport, team_a_id, team_b_id, team_a_name, team_b_name, event_time, event_date,
		scrape_date, market_kind, share_a, share_b, share_field_1, share_field_2, total_line,
		score_a, score_b, outcome_side, actual_winner_id, actual_total, prediction_correct, linked_at,
		linked_result_id, created_at, updated_at`
	errScanConsensus = "failed to scan consensus record: %w"
)

var consensusCopyColumns = []string{
	"id", "sport", "team_a_id", "team_b_id", "team_a_name", "team_b_name", "event_time", "event_date",
	"scrape_date", "market_kind", "share_a", "share_b", "share_field_1", "share_field_2", "total_line",
	"created_at", "updated_at",
}

// PostgresConsensusRepository implements ConsensusRepository for PostgreSQL
type PostgresConsensusRepository struct {
	db *database.DB
}

// NewPostgresConsensusRepository creates a new consensus record repository
func NewPostgresConsensusRepository(db *database.DB) ConsensusRepository {
	return &PostgresConsensusRepository{db: db}
}

// Create inserts a single consensus record
func (r *PostgresConsensusRepository) Create(ctx context.Context, rec *models.ConsensusRecord) error {
	prepareConsensus(rec)
	query := `
		INSERT INTO consensus_records (` + strings.Join(consensusCopyColumns, ", ") + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`
	if _, err := r.db.GetPool().Exec(ctx, query, consensusRow(rec)...); err != nil {
		return fmt.Errorf("failed to insert consensus record: %w", err)
	}
	return nil
}

// CreateBatch inserts many records with COPY
func (r *PostgresConsensusRepository) CreateBatch(ctx context.Context, recs []*models.ConsensusRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, len(recs))
	for i, rec := range recs {
		prepareConsensus(rec)
		rows[i] = consensusRow(rec)
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"consensus_records"}, consensusCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to batch insert consensus records: %w", err)
	}
	if count != int64(len(recs)) {
		return count, fmt.Errorf("inserted %d rows, expected %d", count, len(recs))
	}
	return count, nil
}

// GetByID retrieves a consensus record by id
func (r *PostgresConsensusRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ConsensusRecord, error) {
	query := `SELECT ` + consensusColumns + ` FROM consensus_records WHERE id = $1`
	rec, err := scanConsensus(r.db.GetPool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConsensusNotFound
		}
		return nil, fmt.Errorf(errScanConsensus, err)
	}
	return rec, nil
}

// ListByScrapeDate retrieves records scraped between start and end inclusive
func (r *PostgresConsensusRepository) ListByScrapeDate(ctx context.Context, sport string, start, end time.Time) ([]*models.ConsensusRecord, error) {
	query := `SELECT ` + consensusColumns + ` FROM consensus_records
		WHERE sport = $1 AND scrape_date >= $2 AND scrape_date <= $3
		ORDER BY scrape_date, created_at`
	return r.list(ctx, query, sport, start, end)
}

// ListUnlinked retrieves records still waiting for a result
func (r *PostgresConsensusRepository) ListUnlinked(ctx context.Context, sport string) ([]*models.ConsensusRecord, error) {
	query := `SELECT ` + consensusColumns + ` FROM consensus_records
		WHERE sport = $1 AND linked_at IS NULL
		ORDER BY scrape_date, created_at`
	return r.list(ctx, query, sport)
}

// ListLinked retrieves records with a stored outcome
func (r *PostgresConsensusRepository) ListLinked(ctx context.Context, sport string, kind models.MarketKind) ([]*models.ConsensusRecord, error) {
	query := `SELECT ` + consensusColumns + ` FROM consensus_records
		WHERE sport = $1 AND linked_at IS NOT NULL AND ($2::text = '' OR market_kind = $2::text)
		ORDER BY scrape_date, created_at`
	return r.list(ctx, query, sport, string(kind))
}

// ExistsByDedupeKey reports whether the same matchup and market was already
// stored for the record's scrape date.
func (r *PostgresConsensusRepository) ExistsByDedupeKey(ctx context.Context, rec *models.ConsensusRecord) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consensus_records
			WHERE sport = $1 AND market_kind = $2 AND team_a_id = $3 AND team_b_id = $4 AND scrape_date = $5
		)
	`
	var exists bool
	err := r.db.GetPool().QueryRow(ctx, query,
		rec.Sport, string(rec.Kind), rec.TeamAID, rec.TeamBID, rec.ScrapeDate.Format(models.DateLayout),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate consensus record: %w", err)
	}
	return exists, nil
}

// ApplyOutcomes writes every instruction in one transaction. Rows whose
// stored outcome already equals the instruction are left untouched and are
// not counted.
func (r *PostgresConsensusRepository) ApplyOutcomes(ctx context.Context, updates []models.UpdateInstruction, linkedAt time.Time) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	query := `
		UPDATE consensus_records SET
			score_a = $2, score_b = $3, outcome_side = $4, actual_winner_id = $5,
			actual_total = $6, prediction_correct = $7, linked_result_id = $9,
			linked_at = COALESCE(linked_at, $8), updated_at = $8
		WHERE id = $1 AND (
			linked_at IS NULL
			OR score_a IS DISTINCT FROM $2 OR score_b IS DISTINCT FROM $3
			OR outcome_side IS DISTINCT FROM $4 OR prediction_correct IS DISTINCT FROM $7
			OR linked_result_id IS DISTINCT FROM $9
		)
	`

	changed := 0
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, u := range updates {
			tag, err := tx.Exec(ctx, query,
				u.ConsensusID, u.ScoreA, u.ScoreB, string(u.OutcomeSide), nullString(u.ActualWinnerID),
				u.ActualTotal, u.PredictionCorrect, linkedAt, nullUUID(u.ResultID),
			)
			if err != nil {
				return fmt.Errorf("failed to apply outcome to %s: %w", u.ConsensusID, err)
			}
			changed += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// ListConsumedResults reports which of resultIDs already supplied an
// outcome, per market kind
func (r *PostgresConsensusRepository) ListConsumedResults(ctx context.Context, resultIDs []uuid.UUID) (map[models.MarketKind][]uuid.UUID, error) {
	consumed := make(map[models.MarketKind][]uuid.UUID)
	if len(resultIDs) == 0 {
		return consumed, nil
	}

	query := `SELECT DISTINCT market_kind, linked_result_id FROM consensus_records
		WHERE linked_result_id = ANY($1)`
	rows, err := r.db.GetPool().Query(ctx, query, resultIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query consumed results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind string
			id   uuid.UUID
		)
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, fmt.Errorf("failed to scan consumed result: %w", err)
		}
		consumed[models.MarketKind(kind)] = append(consumed[models.MarketKind(kind)], id)
	}
	return consumed, rows.Err()
}

// PurgeBefore deletes records scraped before cutoff
func (r *PostgresConsensusRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM consensus_records WHERE scrape_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge consensus records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresConsensusRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.ConsensusRecord, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consensus records: %w", err)
	}
	defer rows.Close()

	var records []*models.ConsensusRecord
	for rows.Next() {
		rec, err := scanConsensus(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanConsensus, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func prepareConsensus(rec *models.ConsensusRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
}

func consensusRow(rec *models.ConsensusRecord) []interface{} {
	var shareA, shareB, field1, field2 *string
	var line *float64
	if rec.WinnerLoser != nil {
		shareA, shareB = &rec.WinnerLoser.ShareA, &rec.WinnerLoser.ShareB
	}
	if rec.OverUnder != nil {
		field1, field2, line = &rec.OverUnder.Field1, &rec.OverUnder.Field2, &rec.OverUnder.TotalLine
	}
	return []interface{}{
		rec.ID, rec.Sport, rec.TeamAID, rec.TeamBID, rec.TeamAName, rec.TeamBName, rec.EventTime, rec.EventDate,
		rec.ScrapeDate, string(rec.Kind), shareA, shareB, field1, field2, line,
		rec.CreatedAt, rec.UpdatedAt,
	}
}

func scanConsensus(row pgx.Row) (*models.ConsensusRecord, error) {
	rec := &models.ConsensusRecord{}
	var (
		kind                  string
		shareA, shareB        *string
		field1, field2        *string
		line                  *float64
		scoreA, scoreB        *int
		outcomeSide, winnerID *string
		actualTotal           *int
		predictionCorrect     *bool
		linkedAt              *time.Time
		linkedResultID        *uuid.UUID
	)
	err := row.Scan(
		&rec.ID, &rec.Sport, &rec.TeamAID, &rec.TeamBID, &rec.TeamAName, &rec.TeamBName, &rec.EventTime, &rec.EventDate,
		&rec.ScrapeDate, &kind, &shareA, &shareB, &field1, &field2, &line,
		&scoreA, &scoreB, &outcomeSide, &winnerID, &actualTotal, &predictionCorrect, &linkedAt,
		&linkedResultID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Kind = models.MarketKind(kind)
	switch rec.Kind {
	case models.MarketWinnerLoser:
		rec.WinnerLoser = &models.WinnerLoserMarket{ShareA: deref(shareA), ShareB: deref(shareB)}
	case models.MarketOverUnder:
		rec.OverUnder = &models.OverUnderMarket{Field1: deref(field1), Field2: deref(field2)}
		if line != nil {
			rec.OverUnder.TotalLine = *line
		}
	}

	if linkedAt != nil {
		rec.Outcome = &models.ConsensusOutcome{
			ResultID:       linkedResultID,
			OutcomeSide:    models.Side(deref(outcomeSide)),
			ActualWinnerID: deref(winnerID),
			ActualTotal:    actualTotal,
			LinkedAt:       *linkedAt,
		}
		if scoreA != nil {
			rec.Outcome.ScoreA = *scoreA
		}
		if scoreB != nil {
			rec.Outcome.ScoreB = *scoreB
		}
		if predictionCorrect != nil {
			rec.Outcome.PredictionCorrect = *predictionCorrect
		}
	}
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
