package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/config"
)

// Migration is one versioned schema change
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations is the ordered schema history
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_consensus_records",
		SQL: `
CREATE TABLE IF NOT EXISTS consensus_records (
	id                 UUID PRIMARY KEY,
	sport              TEXT NOT NULL,
	team_a_id          VARCHAR(4) NOT NULL,
	team_b_id          VARCHAR(4) NOT NULL,
	team_a_name        TEXT NOT NULL DEFAULT '',
	team_b_name        TEXT NOT NULL DEFAULT '',
	event_time         TEXT NOT NULL DEFAULT '',
	event_date         TEXT NOT NULL DEFAULT '',
	scrape_date        DATE NOT NULL,
	market_kind        TEXT NOT NULL CHECK (market_kind IN ('WINNER_LOSER', 'OVER_UNDER')),
	share_a            TEXT,
	share_b            TEXT,
	share_field_1      TEXT,
	share_field_2      TEXT,
	total_line         DOUBLE PRECISION,
	score_a            INTEGER,
	score_b            INTEGER,
	outcome_side       TEXT,
	actual_winner_id   TEXT,
	actual_total       INTEGER,
	prediction_correct BOOLEAN,
	linked_at          TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_consensus_dedupe
	ON consensus_records (sport, market_kind, team_a_id, team_b_id, scrape_date);
CREATE INDEX IF NOT EXISTS idx_consensus_unlinked
	ON consensus_records (sport) WHERE linked_at IS NULL;`,
	},
	{
		Version: 2,
		Name:    "create_result_records",
		SQL: `
CREATE TABLE IF NOT EXISTS result_records (
	id             UUID PRIMARY KEY,
	sport          TEXT NOT NULL,
	game_date      DATE NOT NULL,
	home_team_id   VARCHAR(4) NOT NULL,
	away_team_id   VARCHAR(4) NOT NULL,
	home_team_name TEXT NOT NULL DEFAULT '',
	away_team_name TEXT NOT NULL DEFAULT '',
	home_score     INTEGER NOT NULL,
	away_score     INTEGER NOT NULL,
	source         TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (sport, game_date, home_team_id, away_team_id)
);`,
	},
	{
		Version: 3,
		Name:    "create_simulation_runs",
		SQL: `
CREATE TABLE IF NOT EXISTS simulation_runs (
	id              UUID PRIMARY KEY,
	sport           TEXT NOT NULL,
	market_kind     TEXT NOT NULL DEFAULT '',
	run_date        TIMESTAMPTZ NOT NULL,
	initial_balance NUMERIC(14,2) NOT NULL,
	final_balance   NUMERIC(14,2) NOT NULL,
	stake           NUMERIC(14,2) NOT NULL,
	payout          NUMERIC(8,4) NOT NULL,
	threshold       INTEGER NOT NULL,
	bet_count       INTEGER NOT NULL,
	win_count       INTEGER NOT NULL,
	loss_count      INTEGER NOT NULL,
	pct_return      DOUBLE PRECISION NOT NULL,
	final_state     TEXT NOT NULL,
	balance_history JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	},
	{
		Version: 4,
		Name:    "link_consensus_to_results",
		SQL: `
ALTER TABLE consensus_records ADD COLUMN IF NOT EXISTS linked_result_id UUID;
CREATE INDEX IF NOT EXISTS idx_consensus_linked_result
	ON consensus_records (linked_result_id) WHERE linked_result_id IS NOT NULL;
ALTER TABLE result_records DROP CONSTRAINT IF EXISTS result_records_home_score_check;
ALTER TABLE result_records DROP CONSTRAINT IF EXISTS result_records_away_score_check;`,
	},
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Initialize creates a database connection pool and warns when the schema
// has not been migrated yet.
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	if log == nil {
		log = logrus.New()
	}

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	var applied int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied)
	if err != nil || applied < len(Migrations) {
		log.WithField("applied", applied).Warn("Database schema is not up to date, run the migrate command")
	}
	return db, nil
}

// Migrate applies every pending migration, each in its own transaction.
// It returns the versions that were applied.
func (db *DB) Migrate(ctx context.Context) ([]int, error) {
	if _, err := db.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []int
	for _, m := range Migrations {
		var exists bool
		if err := db.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", m.Version,
		).Scan(&exists); err != nil {
			return applied, fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if exists {
			continue
		}

		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name)
			return err
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, m.Version)
	}
	return applied, nil
}
