package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/josema3054/predicciones-deportivas/internal/database"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

const resultColumns = `id, sport, game_date, home_team_id, away_team_id, home_team_name, away_team_name,
	home_score, away_score, source, created_at`

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

const insertResult = `
	INSERT INTO result_records (` + resultColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (sport, game_date, home_team_id, away_team_id) DO NOTHING
`

// Upsert inserts result unless the game is already stored
func (r *PostgresResultRepository) Upsert(ctx context.Context, result *models.ResultRecord) (bool, error) {
	prepareResult(result)
	tag, err := r.db.GetPool().Exec(ctx, insertResult, resultRow(result)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert result: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpsertBatch inserts results in one transaction and returns how many were new
func (r *PostgresResultRepository) UpsertBatch(ctx context.Context, results []*models.ResultRecord) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, result := range results {
			prepareResult(result)
			tag, err := tx.Exec(ctx, insertResult, resultRow(result)...)
			if err != nil {
				return fmt.Errorf("failed to insert result %s@%s: %w", result.AwayTeamID, result.HomeTeamID, err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListByDateRange retrieves results played between start and end inclusive
func (r *PostgresResultRepository) ListByDateRange(ctx context.Context, sport string, start, end time.Time) ([]*models.ResultRecord, error) {
	query := `SELECT ` + resultColumns + ` FROM result_records
		WHERE sport = $1 AND game_date >= $2 AND game_date <= $3
		ORDER BY game_date, created_at`

	rows, err := r.db.GetPool().Query(ctx, query, sport, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query results by date range: %w", err)
	}
	defer rows.Close()

	var results []*models.ResultRecord
	for rows.Next() {
		result := &models.ResultRecord{}
		if err := rows.Scan(
			&result.ID, &result.Sport, &result.Date, &result.HomeTeamID, &result.AwayTeamID,
			&result.HomeTeamName, &result.AwayTeamName, &result.HomeScore, &result.AwayScore,
			&result.Source, &result.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// PurgeBefore deletes results played before cutoff
func (r *PostgresResultRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM result_records WHERE game_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge results: %w", err)
	}
	return tag.RowsAffected(), nil
}

func prepareResult(result *models.ResultRecord) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
}

func resultRow(result *models.ResultRecord) []interface{} {
	return []interface{}{
		result.ID, result.Sport, result.Date, result.HomeTeamID, result.AwayTeamID,
		result.HomeTeamName, result.AwayTeamName, result.HomeScore, result.AwayScore,
		result.Source, result.CreatedAt,
	}
}
