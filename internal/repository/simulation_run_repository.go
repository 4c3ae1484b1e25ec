package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josema3054/predicciones-deportivas/internal/database"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

const simulationRunColumns = `id, sport, market_kind, run_date, initial_balance, final_balance, stake, payout,
	threshold, bet_count, win_count, loss_count, pct_return, final_state, balance_history, created_at`

// PostgresSimulationRunRepository implements SimulationRunRepository for PostgreSQL
type PostgresSimulationRunRepository struct {
	db *database.DB
}

// NewPostgresSimulationRunRepository creates a new simulation run repository
func NewPostgresSimulationRunRepository(db *database.DB) SimulationRunRepository {
	return &PostgresSimulationRunRepository{db: db}
}

// Save inserts a simulation run
func (r *PostgresSimulationRunRepository) Save(ctx context.Context, run *models.SimulationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO simulation_runs (` + simulationRunColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.Sport, run.MarketKind, run.RunDate, run.InitialBalance, run.FinalBalance, run.Stake, run.Payout,
		run.Threshold, run.BetCount, run.WinCount, run.LossCount, run.PctReturn, run.FinalState, run.BalanceHistory, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation run: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent runs for sport
func (r *PostgresSimulationRunRepository) GetLatest(ctx context.Context, sport string, limit int) ([]*models.SimulationRun, error) {
	query := `SELECT ` + simulationRunColumns + ` FROM simulation_runs
		WHERE sport = $1 ORDER BY run_date DESC LIMIT $2`

	rows, err := r.db.GetPool().Query(ctx, query, sport, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest simulation runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SimulationRun
	for rows.Next() {
		run := &models.SimulationRun{}
		if err := rows.Scan(
			&run.ID, &run.Sport, &run.MarketKind, &run.RunDate, &run.InitialBalance, &run.FinalBalance, &run.Stake, &run.Payout,
			&run.Threshold, &run.BetCount, &run.WinCount, &run.LossCount, &run.PctReturn, &run.FinalState, &run.BalanceHistory, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan simulation run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
